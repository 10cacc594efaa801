package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, chunks []string, abort bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		rc := http.NewResponseController(w)
		for _, c := range chunks {
			_, _ = io.WriteString(w, c)
			_ = rc.Flush()
		}
		if abort {
			panic(http.ErrAbortHandler)
		}
	}))
}

func TestReviseCollectsChunks(t *testing.T) {
	srv := streamServer(t, []string{"S1. ", "Background", "\n"}, false)
	defer srv.Close()

	var seen []string
	text, err := New(srv.URL, nil).Revise(context.Background(),
		&models.ReviseRequest{Draft: "d", RevisionType: models.RevisionImpact},
		func(c string) error {
			seen = append(seen, c)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "S1. Background\n", text)
	assert.NotEmpty(t, seen)
}

func TestAbortedStreamIsIncomplete(t *testing.T) {
	srv := streamServer(t, []string{"a", "b", "c"}, true)
	defer srv.Close()

	text, err := New(srv.URL, nil).ImagePrompts(context.Background(), &models.ImagePromptsRequest{Draft: "d"}, nil)
	assert.ErrorIs(t, err, ErrIncompleteStream)
	assert.Equal(t, "abc", text)
}

func TestStatusErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid request: invalid revisionType 3"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Revise(context.Background(), &models.ReviseRequest{Draft: "d", RevisionType: 3}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "invalid request: invalid revisionType 3", statusErr.Message)
}

func TestCallbackErrorStopsReading(t *testing.T) {
	srv := streamServer(t, []string{"x"}, false)
	defer srv.Close()

	stop := errors.New("stop")
	_, err := New(srv.URL, nil).ImagePrompts(context.Background(), &models.ImagePromptsRequest{Draft: "d"},
		func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestGenerateSendsMultipartForm(t *testing.T) {
	type seenFile struct {
		field, name, contentType, body string
	}
	got := make(chan []seenFile, 1)
	fields := make(chan [2]string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		fields <- [2]string{r.FormValue("technologyDomain"), r.FormValue("historyText")}

		var files []seenFile
		for _, c := range models.Categories {
			for _, fh := range r.MultipartForm.File[c.FormField()] {
				f, err := fh.Open()
				if !assert.NoError(t, err) {
					return
				}
				b, _ := io.ReadAll(f)
				_ = f.Close()
				files = append(files, seenFile{c.FormField(), fh.Filename, fh.Header.Get("Content-Type"), string(b)})
			}
		}
		got <- files
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	text, err := New(srv.URL, nil).Generate(context.Background(), &models.GenerateRequest{
		TechnologyDomain: "Robotics",
		HistoryText:      "3 years of R&D",
		Files: map[models.Category][]models.UploadedFile{
			models.CategoryRFP:      {{Name: "rfp.pdf", Content: []byte("%PDF"), DeclaredMIME: "application/pdf"}},
			models.CategoryTaskList: {{Name: "a.txt", Content: []byte("one")}, {Name: "b.txt", Content: []byte("two")}},
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	assert.Equal(t, [2]string{"Robotics", "3 years of R&D"}, <-fields)
	assert.Equal(t, []seenFile{
		{"rfpFiles", "rfp.pdf", "application/pdf", "%PDF"},
		{"taskListFiles", "a.txt", "application/octet-stream", "one"},
		{"taskListFiles", "b.txt", "application/octet-stream", "two"},
	}, <-got)
}
