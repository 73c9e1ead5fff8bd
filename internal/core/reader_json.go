package core

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// objectListReader decodes a whole payload into []T in one step. Field
// matching is the decoder's: json tags or case-insensitive field names,
// header aliases do not apply and any field type the decoder accepts
// (slices, maps, nested structs) is allowed. There are no row boundaries, so a broken
// payload is a single error at row 0 and streaming is not offered.
type objectListReader struct {
	format string
	decode func(data []byte, v any) error
}

var (
	jsonReader = objectListReader{format: "JSON", decode: json.Unmarshal}
	yamlReader = objectListReader{format: "YAML", decode: decodeYAML}
)

func (o objectListReader) streaming() bool { return false }

func (o objectListReader) needsMapping() bool { return false }

func (o objectListReader) stream(context.Context, *input, *Mapping, readOptions) (*cursor, error) {
	return nil, fmt.Errorf("%w: %s files are read whole", ErrStreamingUnsupported, o.format)
}

func (o objectListReader) readAll(_ context.Context, in *input, m *Mapping, _ readOptions) (*batch, error) {
	data, err := io.ReadAll(in.r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", o.format, err)
	}

	b := &batch{}
	list := reflect.New(reflect.SliceOf(m.Type))
	if err := o.decode(data, list.Interface()); err != nil {
		b.errors = []RowError{{Row: 0, Message: fmt.Sprintf("%s parse failed: %v", o.format, err)}}
		return b, nil
	}

	items := list.Elem()
	b.records = make([]reflect.Value, items.Len())
	for i := range items.Len() {
		b.records[i] = items.Index(i).Addr()
	}
	return b, nil
}

// decodeYAML decodes YAML through its JSON form so both formats share one
// set of field matching rules.
func decodeYAML(data []byte, v any) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	bridged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(bridged, v)
}
