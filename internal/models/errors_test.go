package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKind(t *testing.T) {
	bare := WrapKind(ErrInvalidInput, "missing url", nil)
	assert.Equal(t, "missing url", bare.Error())
	assert.True(t, IsKind(bare, ErrInvalidInput))

	cause := errors.New("dial tcp 10.0.0.7:443: refused")
	wrapped := WrapKind(ErrUpstream, "scraper: fetch", cause)
	assert.True(t, IsKind(wrapped, ErrUpstream))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "10.0.0.7")
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bare kind", WrapKind(ErrNotFound, "catalog: no such record", nil), "catalog: no such record"},
		{"wrapped bare kind", fmt.Errorf("dispatch: %w", WrapKind(ErrInvalidInput, "missing url", nil)), "missing url"},
		{"kind with cause", WrapKind(ErrInvalidInput, "scraper: new request", errors.New(`parse "http://10.0.0.7:port": invalid port`)), "invalid input"},
		{"plain error", errors.New("boom"), "invalid input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err, ErrInvalidInput.Error()))
		})
	}
}

func TestUpstreamErrorIsUpstream(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &UpstreamError{URL: "https://roaster.example", Status: 404})
	assert.True(t, IsKind(err, ErrUpstream))
	assert.False(t, IsKind(err, ErrNotFound))
}
