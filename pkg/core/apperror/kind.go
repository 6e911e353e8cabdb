// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     apperror
// Description: Error kinds shared by every adapter
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package apperror

// Kind classifies a failure so the UI can describe it without knowing which
// adapter produced it.
type Kind string

const (
	KindUnknown            Kind = "Unknown"
	KindCapture            Kind = "CaptureError"
	KindSynthesis          Kind = "SynthesisError"
	KindNetwork            Kind = "NetworkError"
	KindServiceUnavailable Kind = "ServiceUnavailable"
	KindAuth               Kind = "AuthError"
	KindQuotaExceeded      Kind = "QuotaExceeded"
	KindMalformedResponse  Kind = "MalformedResponse"
	KindConfig             Kind = "ConfigError"
	KindCanceled           Kind = "Canceled"
)

// String returns the kind name
func (k Kind) String() string {
	return string(k)
}

// Summary returns a short human readable description of the kind
func (k Kind) Summary() string {
	switch k {
	case KindCapture:
		return "speech capture failed"
	case KindSynthesis:
		return "speech output failed"
	case KindNetwork:
		return "service unreachable"
	case KindServiceUnavailable:
		return "service unavailable"
	case KindAuth:
		return "credentials rejected"
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindMalformedResponse:
		return "unexpected response"
	case KindConfig:
		return "configuration error"
	case KindCanceled:
		return "cancelled"
	default:
		return "unexpected error"
	}
}

// Transient reports whether trying the same action again later may succeed.
func (k Kind) Transient() bool {
	switch k {
	case KindNetwork, KindServiceUnavailable, KindQuotaExceeded, KindCapture:
		return true
	default:
		return false
	}
}
