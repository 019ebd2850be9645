package context

type Key string

const (
	Claims Key = "claims"
	Authz  Key = "authz"
	Params Key = "params"
)
