package handler

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/go-faster/jx"
)

// encodeState renders {"registers": {"<id>": ["<customer>", ...], ...}} with
// register ids in ascending order.
func encodeState(e *jx.Encoder, state map[int][]string) {
	e.ObjStart()
	e.FieldStart("registers")
	e.ObjStart()
	ids := make([]int, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		e.FieldStart(strconv.Itoa(id))
		e.ArrStart()
		for _, customerID := range state[id] {
			e.Str(customerID)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	e.ObjEnd()
}

func writeState(w http.ResponseWriter, status int, state map[int][]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encodeState(e, state)
	writeJSON(w, status, e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; a failed write means the client went away.
	_, _ = w.Write(body)
}
