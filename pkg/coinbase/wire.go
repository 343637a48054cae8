package coinbase

import (
	"github.com/mailru/easyjson/jwriter"
)

// SubscribeRequest is the first frame sent on every connection.
type SubscribeRequest struct {
	Type       string
	ProductIDs []string
	Channels   []string
}

func NewSubscribeRequest(productID string, channels []string) SubscribeRequest {
	return SubscribeRequest{
		Type:       "subscribe",
		ProductIDs: []string{productID},
		Channels:   channels,
	}
}

func (r SubscribeRequest) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"type":`)
	w.String(r.Type)
	w.RawString(`,"product_ids":`)
	writeStrings(w, r.ProductIDs)
	w.RawString(`,"channels":`)
	writeStrings(w, r.Channels)
	w.RawByte('}')
}

func (r SubscribeRequest) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	r.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func writeStrings(w *jwriter.Writer, vals []string) {
	w.RawByte('[')
	for i, v := range vals {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(v)
	}
	w.RawByte(']')
}
