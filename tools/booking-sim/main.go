package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// booking-sim exercises the public booking flow end to end: fetch the free
// slots for a professional and book the first one.
func main() {
	var (
		baseURL      = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "clinic-service base url")
		professional = flag.String("professional-id", getenv("PROFESSIONAL_ID", ""), "professional to book with")
		client       = flag.String("client-id", getenv("CLIENT_ID", ""), "booking client")
		pet          = flag.String("pet-id", getenv("PET_ID", ""), "pet the visit is for")
		date         = flag.String("date", time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02"), "visit date (YYYY-MM-DD)")
		reason       = flag.String("reason", "checkup", "visit reason")
	)
	flag.Parse()

	if strings.TrimSpace(*professional) == "" {
		fatal("PROFESSIONAL_ID is required")
	}
	if strings.TrimSpace(*client) == "" || strings.TrimSpace(*pet) == "" {
		fatal("CLIENT_ID and PET_ID are required")
	}

	base := strings.TrimRight(*baseURL, "/")
	slotsURL := base + "/api/v1/public/slots?professional_id=" + url.QueryEscape(*professional) + "&date=" + url.QueryEscape(*date)

	resp, err := http.Get(slotsURL)
	if err != nil {
		fatal(err.Error())
	}
	var slots struct {
		Slots []string `json:"slots"`
	}
	err = json.NewDecoder(resp.Body).Decode(&slots)
	resp.Body.Close()
	if err != nil {
		fatal(err.Error())
	}
	if len(slots.Slots) == 0 {
		fatal(fmt.Sprintf("no free slots for %s on %s", *professional, *date))
	}
	fmt.Printf("free slots on %s: %s\n", *date, strings.Join(slots.Slots, " "))

	body, err := json.Marshal(map[string]string{
		"professional_id": *professional,
		"client_id":       *client,
		"pet_id":          *pet,
		"date":            *date,
		"time":            slots.Slots[0],
		"reason":          *reason,
	})
	if err != nil {
		fatal(err.Error())
	}

	resp, err = http.Post(base+"/api/v1/public/book", "application/json", bytes.NewReader(body))
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()

	var booked struct {
		AppointmentID string `json:"appointment_id"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&booked); err != nil {
		fatal(err.Error())
	}
	fmt.Printf("status=%d appointment_id=%s state=%s slot=%s\n", resp.StatusCode, booked.AppointmentID, booked.Status, slots.Slots[0])
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
