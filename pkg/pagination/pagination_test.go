package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func parseQuery(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParseDefaults(t *testing.T) {
	p := parseQuery(t, "")
	if p.Page != DefaultPage || p.Limit != DefaultLimit || p.Offset != 0 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestParseClampsBounds(t *testing.T) {
	p := parseQuery(t, "page=-3&limit=9999")
	if p.Page != DefaultPage {
		t.Errorf("negative page must fall back, got %d", p.Page)
	}
	if p.Limit != MaxLimit {
		t.Errorf("limit must clamp to %d, got %d", MaxLimit, p.Limit)
	}

	p = parseQuery(t, "page=3&limit=10")
	if p.Offset != 20 {
		t.Errorf("offset = %d, want 20", p.Offset)
	}
}

func TestNewMeta(t *testing.T) {
	meta := Params{Page: 2, Limit: 10}.NewMeta(25)
	if meta.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", meta.TotalPages)
	}
	if meta.Total != 25 || meta.Page != 2 {
		t.Errorf("unexpected meta: %+v", meta)
	}

	if got := (Params{Page: 1, Limit: 10}).NewMeta(30).TotalPages; got != 3 {
		t.Errorf("exact division total pages = %d, want 3", got)
	}
}
