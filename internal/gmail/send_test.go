package gmail

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellomail/internal/history"
	"github.com/dropDatabas3/hellomail/internal/oauth/google"
	"github.com/dropDatabas3/hellomail/internal/templates"
)

func decodeRaw(t *testing.T, raw string) string {
	t.Helper()
	b, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	return string(b)
}

func TestSendMail_BuildsMessageAndRecordsHistory(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.connect(t, "u1", e.now.Add(time.Hour))

	msgID, err := e.mgr.SendMail(context.Background(), SendRequest{
		UserID:  "u1",
		To:      "a@x.com, b@y.com",
		Cc:      "c@z.com",
		Bcc:     "hidden@z.com",
		Subject: "Hola",
		Body:    "Cuerpo",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msgID)

	require.Len(t, e.prov.sent, 1)
	assert.Equal(t, "at-old", e.prov.sent[0].Token)
	msg := decodeRaw(t, e.prov.sent[0].Raw)
	assert.Contains(t, msg, "From: owner@gmail.com")
	assert.Contains(t, msg, "<a@x.com>")
	assert.Contains(t, msg, "<b@y.com>")
	assert.Contains(t, msg, "Cc: <c@z.com>")
	assert.Contains(t, msg, "Bcc: <hidden@z.com>")
	assert.Contains(t, msg, "Subject: Hola")
	assert.Contains(t, strings.ToLower(msg), "mime-version: 1.0")
	assert.Contains(t, msg, "text/plain; charset=UTF-8")

	recs, err := history.NewLog(e.store).List(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "msg-1", recs[0].MessageID)
	assert.Equal(t, "a@x.com, b@y.com", recs[0].To)
	assert.Equal(t, "c@z.com", recs[0].Cc)
	assert.Empty(t, recs[0].TemplateID)
	assert.Equal(t, e.now.UnixMilli(), recs[0].SentAt)
}

func TestSendMail_ErrorMapping(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.mgr.SendMail(ctx, SendRequest{UserID: "u1", To: "a@x.com", Subject: "s", Body: "b"})
	require.ErrorIs(t, err, ErrNotConnected)

	e.connect(t, "u1", e.now.Add(time.Hour))
	_, err = e.mgr.SendMail(ctx, SendRequest{UserID: "u1", To: "not an address", Subject: "s", Body: "b"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.mgr.SendMail(ctx, SendRequest{UserID: "u1", To: "a@x.com", Subject: "s\r\nBcc: x@y.com", Body: "b"})
	require.ErrorIs(t, err, ErrInvalidInput)

	e.prov.sendErr = &google.APIError{Op: "send", Status: 401, Err: google.ErrUnauthorized}
	_, err = e.mgr.SendMail(ctx, SendRequest{UserID: "u1", To: "a@x.com", Subject: "s", Body: "b"})
	assert.True(t, ReconnectRequired(err))

	e.prov.sendErr = &google.APIError{Op: "send", Status: 500}
	_, err = e.mgr.SendMail(ctx, SendRequest{UserID: "u1", To: "a@x.com", Subject: "s", Body: "b"})
	require.ErrorIs(t, err, ErrDispatch)
	assert.False(t, ReconnectRequired(err))

	recs, err := history.NewLog(e.store).List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, recs, "los envíos fallidos no quedan en el historial")
}

func TestSendTemplate(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.connect(t, "u1", e.now.Add(time.Hour))

	repo := templates.NewRepository(e.store, func() time.Time { return *e.now })
	tpl, err := repo.Create(ctx, "u1", templates.Input{Name: "n", Subject: "Carga {{id}}", Body: "Hola {{name}}, {{unknown}}"})
	require.NoError(t, err)

	_, err = e.mgr.SendTemplate(ctx, TemplateSendRequest{
		UserID: "u1", To: "a@x.com", TemplateID: tpl.ID,
		Variables: map[string]any{"id": 7.0, "name": "Ana"},
	})
	require.NoError(t, err)

	msg := decodeRaw(t, e.prov.sent[0].Raw)
	assert.Contains(t, msg, "Subject: Carga 7")
	assert.Contains(t, msg, "Hola Ana, {{unknown}}")

	recs, err := history.NewLog(e.store).List(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, tpl.ID, recs[0].TemplateID)
	assert.Equal(t, "Carga 7", recs[0].Subject)

	_, err = e.mgr.SendTemplate(ctx, TemplateSendRequest{UserID: "u1", To: "a@x.com", TemplateID: "missing"})
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestMessageRaw(t *testing.T) {
	t.Parallel()
	raw, err := Message{From: "me@gmail.com", To: "Ana <ana@x.com>", Subject: "s", Body: "b"}.Raw()
	require.NoError(t, err)
	msg := decodeRaw(t, raw)
	assert.Contains(t, msg, `"Ana" <ana@x.com>`)
	assert.NotContains(t, msg, "Bcc:")

	_, err = Message{From: "me@gmail.com", Subject: "s"}.Raw()
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = Message{From: "me@gmail.com", To: "a@x.com", Cc: "<<bad", Subject: "s"}.Raw()
	require.ErrorIs(t, err, ErrInvalidInput)
}
