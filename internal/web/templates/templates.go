// Package templates renders the HTML pages of the import host.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// RecordTypeOption is one entry of the record type picker.
type RecordTypeOption struct {
	Key     string
	Label   string
	Columns []string
}

// UploadPage renders the upload form for the given record types.
func UploadPage(types []RecordTypeOption, formats []string, maxFileSize int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>File Import</title></head><body>`)
		b.WriteString(`<main><h1>File Import</h1>`)

		if len(types) == 0 {
			b.WriteString(`<p>No record types are registered.</p></main></body></html>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<form id="import-form" method="post" enctype="multipart/form-data">`)
		b.WriteString(`<label for="record-type">Record type</label><select id="record-type" name="recordType">`)
		for _, t := range types {
			fmt.Fprintf(&b, `<option value="%s" data-columns="%s">%s</option>`,
				templ.EscapeString(t.Key),
				templ.EscapeString(strings.Join(t.Columns, ",")),
				templ.EscapeString(t.Label))
		}
		b.WriteString(`</select>`)

		fmt.Fprintf(&b, `<input type="file" name="file" accept="%s" required>`,
			templ.EscapeString(strings.Join(formats, ",")))
		b.WriteString(`<label><input type="checkbox" name="stream" value="1"> Stream rows</label>`)
		b.WriteString(`<button type="submit">Import</button></form>`)

		fmt.Fprintf(&b, `<p>Accepted: %s. Whole-file imports are limited to %s.</p>`,
			templ.EscapeString(strings.Join(formats, ", ")),
			templ.EscapeString(formatBytes(maxFileSize)))

		b.WriteString(`<ul>`)
		for _, t := range types {
			fmt.Fprintf(&b, `<li><a href="/api/template/%s">%s template</a></li>`,
				templ.EscapeString(t.Key), templ.EscapeString(t.Label))
		}
		b.WriteString(`</ul><pre id="result"></pre></main>`)
		b.WriteString(uploadScript)
		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders a user-facing error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="error-alert" role="alert"><strong>`)
		b.WriteString(templ.EscapeString(message))
		b.WriteString(`</strong>`)
		if action != "" {
			b.WriteString(`<p>`)
			b.WriteString(templ.EscapeString(action))
			b.WriteString(`</p>`)
		}
		if code != "" {
			b.WriteString(`<small>Code: `)
			b.WriteString(templ.EscapeString(code))
			b.WriteString(`</small>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

const uploadScript = `<script>
document.getElementById("import-form").addEventListener("submit", async (e) => {
  e.preventDefault();
  const form = e.target;
  const key = form.recordType.value;
  const stream = form.stream.checked;
  const out = document.getElementById("result");
  out.textContent = "";
  const url = "/api/import/" + encodeURIComponent(key) + (stream ? "/stream" : "");
  const resp = await fetch(url, {method: "POST", body: new FormData(form)});
  if (!stream || !resp.ok) {
    out.textContent = JSON.stringify(await resp.json(), null, 2);
    return;
  }
  const reader = resp.body.getReader();
  const dec = new TextDecoder();
  for (;;) {
    const {done, value} = await reader.read();
    if (done) break;
    out.textContent += dec.decode(value, {stream: true});
  }
});
</script>`
