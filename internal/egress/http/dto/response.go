// Package dto provides data transfer objects for HTTP request and response handling.
package dto

// CheckEgressResponse reports an allowed URL. Blocked and malformed URLs
// return the standard error shape instead, so a caller never mistakes a
// denial for an allow.
type CheckEgressResponse struct {
	URL     string `json:"url"`
	Allowed bool   `json:"allowed"`
}
