package imgur

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleImage(id string) Image {
	acct := AccountID("384077")
	return Image{
		ID:          id,
		Title:       strPtr("title " + id),
		Description: nil,
		Datetime:    1345847077,
		Type:        "image/jpeg",
		Width:       800,
		Height:      600,
		Size:        64412,
		Views:       1021,
		Bandwidth:   65764652,
		Favorite:    false,
		NSFW:        boolPtr(false),
		Section:     nil,
		AccountURL:  strPtr("owner"),
		AccountID:   &acct,
		Tags:        []string{"cats", "funny"},
		AdURL:       "",
		Link:        "https://i.imgur.com/" + id + ".jpg",
	}
}

func envelopeJSON(t *testing.T, status int, success bool, data any) string {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	return fmt.Sprintf(`{"status":%d,"success":%t,"data":%s}`, status, success, raw)
}

const albumNotFoundBody = `{"status":400,"success":false,"data":{"error":"Album not found","request":"\/3\/album\/cXz\/images","method":"GET"}}`

func albumJSON(images string) string {
	return strings.ReplaceAll(`{"status":200,"success":true,"data":{
		"id":"cXz3n","title":"Album","description":null,"datetime":1345847077,
		"cover":"PE2NI","cover_width":800,"cover_height":600,"account_url":null,"account_id":null,
		"privacy":"public","layout":"blog","views":42,"link":"https://imgur.com/a/cXz3n",
		"favorite":false,"nsfw":null,"section":null,"images_count":6,"in_gallery":false,
		"is_ad":false,"images":IMAGES}}`, "IMAGES", images)
}
