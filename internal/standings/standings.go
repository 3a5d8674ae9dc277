// Package standings retrieves championship standings from the ergast API
// and renders them as monospace tables for chat output.
package standings

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"f1bot/pkg/texttable"
)

// DefaultURL is the driver-standings endpoint; {year} is substituted with
// the current year at request time.
const DefaultURL = "http://ergast.com/api/f1/{year}/driverStandings"

type Driver struct {
	Number    string
	FirstName string
	LastName  string
	Team      string
	Points    int
}

type DriverStandings struct {
	Drivers []Driver
}

// xml mirrors of the ergast response; encoding/xml matches local names, so
// the feed's namespace needs no special handling.
type mrData struct {
	XMLName   xml.Name      `xml:"MRData"`
	Standings []xmlStanding `xml:"StandingsTable>StandingsList>DriverStanding"`
}

type xmlStanding struct {
	Points string `xml:"points,attr"`
	Driver struct {
		PermanentNumber string `xml:"PermanentNumber"`
		GivenName       string `xml:"GivenName"`
		FamilyName      string `xml:"FamilyName"`
	} `xml:"Driver"`
	Constructor struct {
		Name string `xml:"Name"`
	} `xml:"Constructor"`
}

// Parse decodes an ergast driverStandings XML document.
func Parse(b []byte) (*DriverStandings, error) {
	var doc mrData
	if err := xml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("standings xml: %w", err)
	}
	ds := &DriverStandings{Drivers: make([]Driver, 0, len(doc.Standings))}
	for _, st := range doc.Standings {
		ds.Drivers = append(ds.Drivers, Driver{
			Number:    st.Driver.PermanentNumber,
			FirstName: st.Driver.GivenName,
			LastName:  st.Driver.FamilyName,
			Team:      st.Constructor.Name,
			Points:    parsePoints(st.Points),
		})
	}
	return ds, nil
}

// parsePoints tolerates the fractional points the feed carried for
// half-points races.
func parsePoints(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// Text renders the driver table, highest points first.
func (ds *DriverStandings) Text() string {
	drivers := append([]Driver(nil), ds.Drivers...)
	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].Points > drivers[j].Points
	})

	tbl := texttable.New("Place", "Name", "Team", "Points")
	for i, d := range drivers {
		tbl.AddRow(i+1, d.LastName, d.Team, d.Points)
	}
	return tbl.String()
}

// ConstructorText aggregates driver points per team and renders the table.
func (ds *DriverStandings) ConstructorText() string {
	totals := map[string]int{}
	for _, d := range ds.Drivers {
		totals[d.Team] += d.Points
	}

	type row struct {
		team   string
		points int
	}
	rows := make([]row, 0, len(totals))
	for team, pts := range totals {
		rows = append(rows, row{team, pts})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].points != rows[j].points {
			return rows[i].points > rows[j].points
		}
		return rows[i].team < rows[j].team
	})

	tbl := texttable.New("Place", "Team", "Points")
	for i, r := range rows {
		tbl.AddRow(i+1, r.team, r.points)
	}
	return tbl.String()
}

// Client fetches the current season's standings.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Fetch(ctx context.Context) (*DriverStandings, error) {
	url := strings.ReplaceAll(c.url, "{year}", strconv.Itoa(time.Now().Year()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("standings fetch: unexpected status %s", resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}
