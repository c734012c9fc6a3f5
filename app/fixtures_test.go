package app

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// sampleSchedule mixes numeric and string IDs, upper and lower case team
// names, and a broken fixture between two other teams.
const sampleSchedule = `{
  "rounds": {
    "1": {"name": "Jornada 1", "matches": {
      "101": {"idMatch": 101, "nameLocalTeam": "CB XIRIVELLA- CARNICAS EMBUENA", "nameVisitorTeam": "CB TORRENT", "matchDay": "2024-05-10 18:30:00", "nameField": "Pabellón Municipal", "nameTown": "Xirivella"},
      "102": {"idMatch": 102, "nameLocalTeam": "CB PATERNA", "nameVisitorTeam": "CB MISLATA", "matchDay": "2024-05-10 20:00:00", "nameField": "Poliesportiu", "nameTown": "Paterna"}
    }},
    "2": {"name": "Jornada 2", "matches": {
      "201": {"idMatch": "201", "nameLocalTeam": "CB Mislata", "nameVisitorTeam": "cb xirivella- carnicas embuena", "matchDay": "2024-05-17 12:00:00", "nameField": "", "nameTown": "Mislata"},
      "202": {"idMatch": 202, "nameLocalTeam": "CB TORRENT", "nameVisitorTeam": "CB PATERNA", "matchDay": "not a date"}
    }}
  }
}`

const sampleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"CALSCALE:GREGORIAN\r\n" +
	"METHOD:PUBLISH\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:101@xirivella\r\n" +
	"DTSTAMP:20240501T100000Z\r\n" +
	"DTSTART;TZID=Europe/Madrid:20240510T183000\r\n" +
	"DTEND;TZID=Europe/Madrid:20240510T203000\r\n" +
	"SUMMARY:CB XIRIVELLA- CARNICAS EMBUENA vs CB TORRENT\r\n" +
	"LOCATION:Pabellón Municipal\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:201@xirivella\r\n" +
	"DTSTAMP:20240501T100000Z\r\n" +
	"DTSTART;TZID=Europe/Madrid:20240517T120000\r\n" +
	"DTEND;TZID=Europe/Madrid:20240517T140000\r\n" +
	"SUMMARY:CB Mislata vs cb xirivella- carnicas embuena\r\n" +
	"LOCATION:Mislata\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func encodePayload(schedule string) []byte {
	return []byte(`{"messageData":"` + base64.StdEncoding.EncodeToString([]byte(schedule)) + `"}`)
}

// fakeUpstream serves body with status for every request.
func fakeUpstream(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(upstreamURL string) Config {
	cfg := DefaultConfig()
	cfg.UpstreamURL = upstreamURL
	return cfg
}

func strPtr(s string) *Text {
	t := Text(s)
	return &t
}

func countEvents(feed string) int {
	return strings.Count(feed, "BEGIN:VEVENT\r\n")
}
