package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Form: поля и файлы multipart запроса.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct{ name, value string }

type formFile struct{ field, path string }

// Field добавляет текстовое поле.
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, formField{name, value})
	return f
}

// File добавляет файл с диска под полем field.
func (f *Form) File(field, path string) *Form {
	f.files = append(f.files, formFile{field, path})
	return f
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, fl := range f.fields {
		if err := mw.WriteField(fl.name, fl.value); err != nil {
			return nil, "", err
		}
	}
	for _, ff := range f.files {
		if err := writeFile(mw, ff); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, ff formFile) error {
	src, err := os.Open(ff.path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := mw.CreateFormFile(ff.field, filepath.Base(ff.path))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
