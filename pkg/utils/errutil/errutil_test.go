package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/utils/errutil"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	t.Run("nil error is ignored", func(t *testing.T) {
		gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))
	})

	t.Run("goerr values are logged", func(t *testing.T) {
		buf.Reset()
		base := errors.New("boom")
		err := goerr.Wrap(base, "sync failed", goerr.V("recording_id", "rec-1"))

		got := errutil.Handle(ctx, err, "sync failed")
		gt.Bool(t, errors.Is(got, base)).True()
		gt.String(t, buf.String()).Contains("rec-1")
	})
}

func TestHandleHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), w, errors.New("bad"), http.StatusBadRequest)
	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	gt.String(t, w.Body.String()).Contains("bad")
}
