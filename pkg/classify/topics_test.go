package classify

import (
	"testing"
)

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestTopicsTable(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"siapa nama kamu?", []string{TopicIdentity, TopicQuestion}},
		{"umur lo berapa", []string{TopicAge, TopicQuestion}},
		{"aku tinggal di bandung", []string{TopicLocation}},
		{"kerja dimana sekarang", []string{TopicWork, TopicLocation}},
		{"hobi ku main gitar", []string{TopicInterests}},
		{"laper banget pengen makan sate", []string{TopicFood}},
		{"lagi dengerin lagu apa", []string{TopicMusic, TopicQuestion}},
		{"udah nonton film baru belum", []string{TopicEntertainment}},
		{"mabar futsal yuk", []string{TopicSports}},
		{"besok ujian kalkulus", []string{TopicEducation}},
		{"liat foto yang tadi dong", []string{TopicImage}},
		{"halo semuanya", []string{TopicGreeting}},
		{"tolong cariin resep nasi goreng", []string{TopicRequest, TopicFood}},
	}
	for _, c := range cases {
		got := Topics(c.text)
		for _, w := range c.want {
			if !hasTag(got, w) {
				t.Errorf("Topics(%q) = %v, missing %q", c.text, got, w)
			}
		}
	}
}

func TestTopicsMultipleTags(t *testing.T) {
	got := Topics("kenapa kamu suka makan sate?")
	if !hasTag(got, TopicFood) || !hasTag(got, TopicQuestion) {
		t.Fatalf("expected food and question, got %v", got)
	}
}

func TestTopicsEmptyText(t *testing.T) {
	if got := Topics("   "); got != nil {
		t.Fatalf("whitespace text should carry no topic signal, got %v", got)
	}
	if got := Topics(""); got != nil {
		t.Fatalf("empty text should carry no topic signal, got %v", got)
	}
}

func TestHasTopic(t *testing.T) {
	if !HasTopic("kirim foto dong", TopicImage) {
		t.Fatal("expected image topic")
	}
	if HasTopic("kirim foto dong", TopicSports) {
		t.Fatal("unexpected sports topic")
	}
}
