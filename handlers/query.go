package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"accident-dashboard-api/accidents"

	"github.com/gin-gonic/gin"
)

const queryDateLayout = "2006-01-02"

// ParseSelection reads the filter query parameters. A date range needs both
// desde and hasta; a single bound is rejected by the filter itself.
func ParseSelection(c *gin.Context) (accidents.Selection, error) {
	sel := accidents.Selection{
		Municipality: c.Query("municipio"),
		Class:        c.Query("clase"),
		Severity:     c.Query("gravedad"),
		Weekday:      c.Query("dia"),
		District:     c.Query("comuna"),
		Text:         c.Query("q"),
	}

	from, to := c.Query("desde"), c.Query("hasta")
	if from == "" && to == "" {
		return sel, nil
	}
	var rng accidents.DateRange
	if from != "" {
		t, err := time.Parse(queryDateLayout, from)
		if err != nil {
			return sel, fmt.Errorf("invalid desde %q: expected YYYY-MM-DD", from)
		}
		rng.From = t
	}
	if to != "" {
		t, err := time.Parse(queryDateLayout, to)
		if err != nil {
			return sel, fmt.Errorf("invalid hasta %q: expected YYYY-MM-DD", to)
		}
		rng.To = t
	}
	sel.DateRange = &rng
	return sel, nil
}

// selectionKey is a stable cache key fragment for a selection.
func selectionKey(sel accidents.Selection) string {
	data, _ := json.Marshal(sel)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
