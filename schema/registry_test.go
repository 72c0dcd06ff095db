package schema

import (
	"errors"
	"testing"
)

func loaderFor(t *Type) Loader {
	return func(fields map[string]any) (Record, error) {
		return &fakeRecord{typ: t, vals: fields}, nil
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("full", fullData, loaderFor(fullData)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("full", fullData, loaderFor(fullData)); err != nil {
		t.Errorf("re-registering the same type should be a no-op, got %v", err)
	}
	if err := r.Register("full", leanData, loaderFor(leanData)); !errors.Is(err, ErrVariantConflict) {
		t.Errorf("expected ErrVariantConflict, got %v", err)
	}
	if err := r.Register("", fullData, loaderFor(fullData)); !errors.Is(err, ErrInvalidVariant) {
		t.Errorf("expected ErrInvalidVariant, got %v", err)
	}
	if err := r.Register("standalone", leanData, nil); !errors.Is(err, ErrInvalidVariant) {
		t.Errorf("expected ErrInvalidVariant for nil loader, got %v", err)
	}

	r.MustRegister("standalone", leanData, loaderFor(leanData))
	if got := r.Backends(DataName); len(got) != 2 || got[0] != "full" || got[1] != "standalone" {
		t.Errorf("Backends() = %v", got)
	}
	if got := r.Names(); len(got) != 1 || got[0] != DataName {
		t.Errorf("Names() = %v", got)
	}
}

func TestRegistryConvert(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("full", fullMessage, loaderFor(fullMessage))
	r.MustRegister("standalone", leanMessage, loaderFor(leanMessage))

	src := msg(leanMessage, map[string]any{
		"data": map[string]any{"text": "hello"}, "text": "hello", "sender": "User",
	})

	out, err := r.Convert(src, "full")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if out.Schema() != fullMessage {
		t.Errorf("converted record has type %v", out.Schema())
	}
	if !StructurallyEqual(src, out) {
		t.Error("converted record should be structurally equal to its source")
	}

	same, err := r.Convert(src, "standalone")
	if err != nil || same != Record(src) {
		t.Errorf("converting to the own backend should return the input, got %v, %v", same, err)
	}

	if _, err := r.Convert(msg(fullData, nil), "full"); !errors.Is(err, ErrNoVariant) {
		t.Errorf("expected ErrNoVariant, got %v", err)
	}
	if _, err := r.Convert(nil, "full"); !errors.Is(err, ErrIncompatible) {
		t.Errorf("expected ErrIncompatible for nil, got %v", err)
	}
}

func TestRegistryConvertSubtype(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("full", fullMessage, loaderFor(fullMessage))

	chat := Define("ChatMessage", leanMessage, Opt("channel"))
	src := msg(chat, map[string]any{
		"data": map[string]any{}, "text": "hi", "sender": "User", "channel": "general",
	})
	if !Compatible(src, fullMessage) {
		t.Fatal("subtype should be compatible with Message")
	}

	out, err := r.Convert(src, "full")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if out.Schema() != fullMessage {
		t.Errorf("converted record has type %v, want the full Message", out.Schema())
	}
	if v, _ := out.Field(FieldText); v != "hi" {
		t.Errorf("text = %v", v)
	}
	if _, ok := out.Field("channel"); ok {
		t.Error("fields only the subtype declares should not survive conversion")
	}
}

func TestRegistryConforms(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("full", fullMessage, loaderFor(fullMessage))
	r.MustRegister("full", fullData, loaderFor(fullData))

	if err := r.Conforms(Data, "full"); err != nil {
		t.Errorf("full Data should conform: %v", err)
	}

	// The full Message variant lacks several optional contract fields.
	err := r.Conforms(Message, "full")
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) || len(mismatch.Missing) == 0 {
		t.Errorf("expected missing contract fields, got %v", err)
	}

	if err := r.Conforms(Data, "standalone"); !errors.Is(err, ErrNoVariant) {
		t.Errorf("expected ErrNoVariant, got %v", err)
	}
}
