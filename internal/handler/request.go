package handler

import (
	"mime"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

const (
	fieldCustomerID = "customer_id"
	fieldItemID     = "item_id"
)

// floorRequest carries the fields accepted by /add and /checkout.
type floorRequest struct {
	CustomerID string `form:"customer_id"`
	ItemID     string `form:"item_id"`
}

// require reports the first named field that is empty.
func (req floorRequest) require(fields ...string) error {
	for _, f := range fields {
		var v string
		switch f {
		case fieldCustomerID:
			v = req.CustomerID
		case fieldItemID:
			v = req.ItemID
		}
		if v == "" {
			return errors.Errorf("missing required field %q", f)
		}
	}
	return nil
}

// decodeRequest reads a form-encoded body, or a JSON object when the request
// says so. Query parameters are not consulted.
func (h *Handler) decodeRequest(r *http.Request) (floorRequest, error) {
	var req floorRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSONRequest(jx.Decode(r.Body, 512), &req); err != nil {
			return req, errors.Wrap(err, "decode json body")
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, errors.Wrap(err, "parse form")
	}
	if err := h.forms.Decode(&req, r.PostForm); err != nil {
		return req, errors.Wrap(err, "decode form")
	}
	return req, nil
}

func decodeJSONRequest(d *jx.Decoder, req *floorRequest) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case fieldCustomerID:
			v, err := decodeID(d)
			if err != nil {
				return errors.Wrap(err, key)
			}
			req.CustomerID = v
		case fieldItemID:
			v, err := decodeID(d)
			if err != nil {
				return errors.Wrap(err, key)
			}
			req.ItemID = v
		default:
			return d.Skip()
		}
		return nil
	})
}

// decodeID accepts ids sent either as strings or as bare numbers.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.Errorf("expected string or number, got %s", d.Next())
	}
}
