// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     apperror
// Description: Classification of HTTP and transport failures
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package apperror

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"
)

// StatusQuotaExceeded is DeepL's "quota exceeded" status.
const StatusQuotaExceeded = 456

const maxBodyExcerpt = 200

// KindForStatus maps an HTTP status to an error kind. 2xx yields "".
func KindForStatus(status int) Kind {
	switch {
	case status >= 200 && status < 300:
		return ""
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests, status == StatusQuotaExceeded, status == http.StatusPaymentRequired:
		return KindQuotaExceeded
	default:
		return KindServiceUnavailable
	}
}

// FromStatus builds the error for a non-2xx provider response. The body
// excerpt is kept as message so the status line shows what the provider said.
func FromStatus(operation string, status int, body []byte) *Error {
	kind := KindForStatus(status)
	if kind == "" {
		return nil
	}
	msg := excerpt(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return New(kind, operation, msg).WithDetail("status", status)
}

// FromTransport classifies a failure to complete an HTTP exchange. Context
// cancellation stays distinguishable as KindCanceled.
func FromTransport(operation string, err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, KindCanceled, operation, "")
	}
	return Wrap(err, KindNetwork, operation, "")
}

// Malformed reports a response whose shape is not the expected one.
func Malformed(operation, message string) *Error {
	return New(KindMalformedResponse, operation, message)
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxBodyExcerpt {
		return s
	}
	cut := maxBodyExcerpt
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
