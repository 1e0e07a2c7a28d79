package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/feedkit/pkg/logger"
)

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "feedkit")),
	)

	log.Info("hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, "feedkit", rec["service"])
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithLevel(slog.LevelWarn),
		logger.WithOutput(&buf),
	)

	log.Info("suppressed")
	assert.Zero(t, buf.Len())

	log.Warn("emitted")
	assert.NotZero(t, buf.Len())
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithFormat(logger.FormatText),
		logger.WithOutput(&buf),
	)

	log.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestWithFormat_PanicsOnInvalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("yaml"))
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	t.Run("error attr", func(t *testing.T) {
		t.Parallel()

		attr := logger.Error(errors.New("boom"))
		assert.Equal(t, "error", attr.Key)

		empty := logger.Error(nil)
		assert.Empty(t, empty.Key)
	})

	t.Run("domain attrs", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "item_id", logger.ItemID("item_1").Key)
		assert.Empty(t, logger.ItemID(nil).Key)
		assert.Equal(t, "query_key", logger.QueryKey("k").Key)
		assert.Equal(t, "topic", logger.Topic("items.archived").Key)
		assert.Equal(t, "component", logger.Component("feed").Key)
	})

	t.Run("errors group", func(t *testing.T) {
		t.Parallel()

		attr := logger.Errors(errors.New("a"), nil, errors.New("b"))
		assert.Equal(t, "errors", attr.Key)

		empty := logger.Errors(nil, nil)
		assert.Empty(t, empty.Key)
	})
}
