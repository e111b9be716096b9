// Package classify maps free chat text to topic tags and cross-chat
// question intents using data-driven pattern tables. The rules are
// deterministic keyword heuristics; each rule is independently testable
// and the tables can grow without touching control flow.
package classify

import (
	"regexp"
	"strings"
)

// Topic tags. A message may carry several.
const (
	TopicIdentity      = "identity"
	TopicAge           = "age"
	TopicLocation      = "location"
	TopicWork          = "work"
	TopicInterests     = "interests"
	TopicFood          = "food"
	TopicMusic         = "music"
	TopicEntertainment = "entertainment"
	TopicSports        = "sports"
	TopicEducation     = "education"
	TopicImage         = "image"
	TopicQuestion      = "question"
	TopicGreeting      = "greeting"
	TopicRequest       = "request"
)

// TopicRule pairs one pattern with the tag it assigns.
type TopicRule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// topicRules is evaluated against the lowercased text in declaration
// order; all matching tags are returned.
var topicRules = []TopicRule{
	{TopicIdentity, regexp.MustCompile(`siapa\s+(?:nama|kamu)|nama\s*(?:ku|mu|nya|\s+(?:kamu|saya|aku|lo))|kenalan|kenalin|who\s+are\s+you|my\s+name\s+is`)},
	{TopicAge, regexp.MustCompile(`\bumur|usia|berapa\s+tahun|\btahun\s+berapa|how\s+old|angkatan\s+berapa`)},
	{TopicLocation, regexp.MustCompile(`di\s?mana|dmn\b|tinggal|domisili|alamat|lokasi|daerah\s+mana|kota\s+mana|where\s+(?:do\s+you\s+)?live|asal\s+mana|dari\s+mana`)},
	{TopicWork, regexp.MustCompile(`kerja|kerjaan|profesi|pekerjaan|kantor|bisnis|usaha|gaji|\bjob\b|\bwork\b|career`)},
	{TopicInterests, regexp.MustCompile(`hobi|hobby|suka\s+(?:apa|ng?\w+)|kesukaan|favorit|gemar|interest`)},
	{TopicFood, regexp.MustCompile(`makan|makanan|kuliner|masak|laper|lapar|jajan|minum|kopi|\bfood\b|hungry|resep`)},
	{TopicMusic, regexp.MustCompile(`musik|lagu|band|penyanyi|nyanyi|konser|playlist|\bsong\b|music|spotify`)},
	{TopicEntertainment, regexp.MustCompile(`film|movie|nonton|bioskop|anime|drama|serial|netflix|game|main\s+apa|streaming|youtube`)},
	{TopicSports, regexp.MustCompile(`olahraga|sepak\s?bola|\bbola\b|futsal|badminton|\bgym\b|lari\s|renang|basket|sport|mabar`)},
	{TopicEducation, regexp.MustCompile(`belajar|sekolah|kuliah|kampus|pelajaran|ujian|tugas|skripsi|dosen|guru|study|exam|homework`)},
	{TopicImage, regexp.MustCompile(`foto|gambar|\bpic\b|picture|image|photo|screenshot|\bss\b|selfie`)},
	{TopicQuestion, regexp.MustCompile(`\?|\bapa(?:kah)?\b|siapa|kapan|di\s?mana|kenapa|mengapa|bagaimana|gimana|berapa|\bkah\b`)},
	{TopicGreeting, regexp.MustCompile(`^(?:hai|halo|hallo|hello|hi\b|hey|hei|woi|oi|p\b|bro\b|selamat\s+(?:pagi|siang|sore|malam)|pagi\b|siang\b|sore\b|malam\b|assalamualaikum)`)},
	{TopicRequest, regexp.MustCompile(`tolong|bantu|minta|bisa\s+(?:kamu|lo|lu|ga|gak|nggak)|coba\s+\w+|please|can\s+you|carikan|cariin|buatkan|buatin`)},
}

// Topics returns all topic tags matching the text, in rule order.
// Empty or whitespace-only text carries no topic signal.
func Topics(text string) []string {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return nil
	}
	var tags []string
	for _, r := range topicRules {
		if r.Pattern.MatchString(t) {
			tags = append(tags, r.Tag)
		}
	}
	return tags
}

// HasTopic reports whether text matches one specific tag's rule.
func HasTopic(text, tag string) bool {
	for _, r := range topicRules {
		if r.Tag == tag {
			return r.Pattern.MatchString(strings.ToLower(text))
		}
	}
	return false
}
