package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorage_WriteReadURL(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), URLPrefix: "/assets/"})
	req.NoError(err)

	// Given a portrait written under a nested key
	req.NoError(s.Write(ctx, "party/heroes/aria.png", strings.NewReader("png-bytes"), -1, "image/png"))

	// Then it can be read back and addressed over HTTP
	rc, err := s.Read(ctx, "party/heroes/aria.png")
	req.NoError(err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	req.NoError(err)
	req.Equal("png-bytes", string(body))

	url, err := s.GetURL(ctx, "party/heroes/aria.png", time.Hour)
	req.NoError(err)
	req.Equal("/assets/party/heroes/aria.png", url)

	ok, err := s.Exists(ctx, "party/heroes/aria.png")
	req.NoError(err)
	req.True(ok)
}

func TestLocalStorage_MissingKey(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	req.NoError(err)

	_, err = s.Read(ctx, "nope.png")
	req.True(errors.Is(err, ErrNotFound))

	ok, err := s.Exists(ctx, "nope.png")
	req.NoError(err)
	req.False(ok)

	// Deleting a missing key is not an error
	req.NoError(s.Delete(ctx, "nope.png"))
}

func TestLocalStorage_KeysStayInsideBasePath(t *testing.T) {
	req := require.New(t)
	base := t.TempDir()

	s, err := NewLocalStorage(LocalConfig{BasePath: base})
	req.NoError(err)

	req.True(strings.HasPrefix(s.fullPath("../../etc/passwd"), s.BasePath()))
}
