package backend

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type PageInfo struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	Empty         bool  `json:"empty"`
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
}

// Page is a validated list result, whatever shape the backend used.
type Page[T any] struct {
	Items []T      `json:"items"`
	Info  PageInfo `json:"page"`
}

// PageQuery uses 1-based pages like the backend. Sort is "field,dir".
type PageQuery struct {
	Page int
	Size int
	Sort string
}

func (q PageQuery) encode() string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func malformed(op string, err error) error {
	return &Error{Op: op, Kind: ErrMalformed, Err: err}
}

// decodeData unwraps {status, message, data} into T.
func decodeData[T any](op string, raw []byte) (T, error) {
	var out T
	if !gjson.ValidBytes(raw) {
		return out, malformed(op, errInvalidJSON)
	}
	data := gjson.GetBytes(raw, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return out, malformed(op, errMissingData)
	}
	if err := json.Unmarshal([]byte(data.Raw), &out); err != nil {
		return out, malformed(op, err)
	}
	return out, nil
}

// decodePage accepts the four list shapes the backend produces:
//
//	{data: {content: [...], page: {...}}}   paged envelope
//	{data: [...]}                           bare list in envelope
//	{content: [...], totalPages: ...}       paged DTO without envelope
//	[...]                                   bare array
func decodePage[T any](op string, raw []byte) (Page[T], error) {
	var out Page[T]
	if !gjson.ValidBytes(raw) {
		return out, malformed(op, errInvalidJSON)
	}
	root := gjson.ParseBytes(raw)

	var items, info gjson.Result
	switch {
	case root.Get("data.content").IsArray():
		items, info = root.Get("data.content"), root.Get("data.page")
	case root.Get("data").IsArray():
		items = root.Get("data")
	case root.Get("content").IsArray():
		items, info = root.Get("content"), root
	case root.IsArray():
		items = root
	default:
		return out, malformed(op, errListShape)
	}

	if err := json.Unmarshal([]byte(items.Raw), &out.Items); err != nil {
		return out, malformed(op, err)
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	if info.IsObject() {
		if err := json.Unmarshal([]byte(info.Raw), &out.Info); err != nil {
			return out, malformed(op, err)
		}
	} else {
		out.Info = singlePage(len(out.Items))
	}
	return out, nil
}

func singlePage(n int) PageInfo {
	return PageInfo{
		Page:          1,
		Size:          n,
		TotalElements: int64(n),
		TotalPages:    1,
		First:         true,
		Last:          true,
		Empty:         n == 0,
	}
}

// mapPage converts the items of a wire page.
func mapPage[W, D any](p Page[W], fn func(W) D) Page[D] {
	out := Page[D]{Items: make([]D, 0, len(p.Items)), Info: p.Info}
	for _, it := range p.Items {
		out.Items = append(out.Items, fn(it))
	}
	return out
}

func mapSlice[W, D any](in []W, fn func(W) D) []D {
	out := make([]D, 0, len(in))
	for _, it := range in {
		out = append(out, fn(it))
	}
	return out
}

// wireTime accepts RFC 3339 as well as zone-less local date-times, which the
// backend emits for its timestamps. Zone-less values are read as UTC.
type wireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range wireTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported time %q", s)
}
