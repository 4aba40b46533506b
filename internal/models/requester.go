package models

// Requester exposes the identity of the signed-in caller that triggered a
// workflow run. Empty return values mean the field is unknown. A nil
// Requester is an anonymous run; requester-derived tags and fields are
// simply omitted.
type Requester interface {
	Email() string
	DisplayName() string
}

// HeaderRequester is a Requester built from the identity headers the
// auth layer sets on proxied requests.
type HeaderRequester struct {
	Addr string
	Name string
}

func (h HeaderRequester) Email() string { return h.Addr }

func (h HeaderRequester) DisplayName() string { return h.Name }
