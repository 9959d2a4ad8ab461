package http

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

// newMultipart пишет форму с одним файлом в buf и возвращает Content-Type.
func newMultipart(t *testing.T, buf *bytes.Buffer, fields map[string]string, fileField, filename string, content []byte) string {
	t.Helper()

	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(fileField, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return mw.FormDataContentType()
}
