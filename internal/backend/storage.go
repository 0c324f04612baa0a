package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Object is a stored file as described by the object-storage endpoint.
// Which of the fields is populated depends on the backend version, see ResolveURL.
type Object struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Key  string `json:"key"`
}

// ResolveURL returns a retrievable URL for the object, falling back from the
// direct url through the path to a key-derived objects path.
func (o *Object) ResolveURL(bucket, fallbackName string) string {
	switch {
	case o.URL != "":
		return o.URL
	case o.Path != "":
		return o.Path
	case o.Key != "":
		return fmt.Sprintf("/api/storage/buckets/%s/objects/%s", bucket, o.Key)
	default:
		return fmt.Sprintf("/api/storage/buckets/%s/objects/%s", bucket, fallbackName)
	}
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// UploadObject uploads a file to bucket as a multipart form and returns the
// stored object. The storage endpoint assigns the final key itself.
func (c *Client) UploadObject(ctx context.Context, bucket, name, contentType string, r io.Reader) (*Object, error) {
	var body bytes.Buffer

	w := multipart.NewWriter(&body)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}

	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	hdr := http.Header{}
	hdr.Set("Content-Type", w.FormDataContentType())

	var out Object
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/storage/buckets/%s/objects", bucket), nil, hdr, &body, &out); err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	return &out, nil
}
