package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestConfigurationMissing(t *testing.T) {
	err := NewConfigurationMissing("idle-close timeout not set", map[string]any{"channelId": int64(1)})

	if !IsConfigurationMissing(err) {
		t.Error("expected CONFIGURATION_MISSING to be detected")
	}
	if !IsConfigurationMissing(fmt.Errorf("close pass: %w", err)) {
		t.Error("expected detection through wrapping")
	}
	if IsConfigurationMissing(errors.New("db down")) {
		t.Error("expected plain errors not to match")
	}

	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatal("expected a DomainError")
	}
	if domainErr.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status %d", domainErr.HTTPStatus)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	domainErr := ToDomainError(fmt.Errorf("load ticket: %w", pgx.ErrNoRows))
	if domainErr.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %q", domainErr.Code)
	}
	if domainErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("unexpected status %d", domainErr.HTTPStatus)
	}
}
