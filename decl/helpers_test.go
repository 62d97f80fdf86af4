package decl

import (
	"testing"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
)

func dynamicFromText(t *testing.T, md *desc.MessageDescriptor, text []byte) *dynamic.Message {
	t.Helper()
	msg := dynamic.NewMessage(md)
	if err := msg.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	return msg
}
