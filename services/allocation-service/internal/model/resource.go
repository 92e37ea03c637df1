package model

// Resource is the local mirror of a master-data resource (a worker or a
// machine). Only the fields the allocation flow needs are kept.
type Resource struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Active bool   `json:"active"`
}
