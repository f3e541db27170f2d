package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()

	if p.writer.Compression != kafka.Zstd {
		t.Fatalf("compression option not applied")
	}
	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer by default")
	}
}

func TestEncodeValue(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"bytes", []byte("raw"), "raw"},
		{"string", "text", "text"},
		{"struct", struct {
			Kind string `json:"kind"`
		}{"ingress"}, `{"kind":"ingress"}`},
	}

	for _, tc := range cases {
		got, err := encodeValue(tc.value)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if string(got) != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}

	if _, err := encodeValue(func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}
