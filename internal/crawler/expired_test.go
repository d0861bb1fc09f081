package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The expired section boundary is a heuristic tied to the source page's
// markup: "All Expired SHiFT Codes" as a heading, closed by the next heading.
// These tests pin that behaviour so a markup change shows up here first.

const nestedHeadingsHTML = `<html><body>
	<h2>All Expired SHiFT Codes</h2>
	<p>AAAAA-AAAAA-AAAAA-AAAAA-AAAAA</p>
	<h3>Expired in September</h3>
	<p>BBBBB-BBBBB-BBBBB-BBBBB-BBBBB</p>
	<h2>Other games</h2>
	<p>CCCCC-CCCCC-CCCCC-CCCCC-CCCCC</p>
</body></html>`

func TestExpiredRegionRankBoundary(t *testing.T) {
	cfg := defaultExtractConfig()
	cfg.UseClassHint = false

	result := Extract(newTestDocument(t, nestedHeadingsHTML), cfg)
	assert.Equal(t, []string{"CCCCC-CCCCC-CCCCC-CCCCC-CCCCC"}, result.Codes)
	assert.Equal(t, []string{
		"AAAAA-AAAAA-AAAAA-AAAAA-AAAAA",
		"BBBBB-BBBBB-BBBBB-BBBBB-BBBBB",
	}, result.ExpiredExcluded)
}

func TestExpiredRegionAnyBoundary(t *testing.T) {
	cfg := defaultExtractConfig()
	cfg.UseClassHint = false
	cfg.ExpiredBoundary = BoundaryAny

	result := Extract(newTestDocument(t, nestedHeadingsHTML), cfg)
	assert.Equal(t, []string{
		"BBBBB-BBBBB-BBBBB-BBBBB-BBBBB",
		"CCCCC-CCCCC-CCCCC-CCCCC-CCCCC",
	}, result.Codes)
	assert.Equal(t, []string{"AAAAA-AAAAA-AAAAA-AAAAA-AAAAA"}, result.ExpiredExcluded)
}

func TestExpiredRegionRunsToEndOfDocument(t *testing.T) {
	html := `<html><body>
		<h3>Active</h3><p>AAAAA-AAAAA-AAAAA-AAAAA-AAAAA</p>
		<h3>  all   expired shift codes </h3>
		<div><h4>Older</h4><p>BBBBB-BBBBB-BBBBB-BBBBB-BBBBB</p></div>
	</body></html>`

	cfg := defaultExtractConfig()
	cfg.UseClassHint = false
	result := Extract(newTestDocument(t, html), cfg)
	assert.True(t, result.ExpiredFound)
	assert.Equal(t, []string{"AAAAA-AAAAA-AAAAA-AAAAA-AAAAA"}, result.Codes)
}

func TestExpiredRegionTableHeaderFallback(t *testing.T) {
	html := `<html><body>
		<table><tr><th>Active codes</th></tr><tr><td>AAAAA-AAAAA-AAAAA-AAAAA-AAAAA</td></tr></table>
		<table>
			<tr><th>All Expired SHiFT Codes (2025)</th></tr>
			<tr><td><span class="task-name">BBBBB-BBBBB-BBBBB-BBBBB-BBBBB</span></td></tr>
		</table>
		<span class="task-name">CCCCC-CCCCC-CCCCC-CCCCC-CCCCC</span>
	</body></html>`

	result := Extract(newTestDocument(t, html), defaultExtractConfig())
	assert.Equal(t, StrategyTargeted, result.Strategy)
	assert.Equal(t, []string{"CCCCC-CCCCC-CCCCC-CCCCC-CCCCC"}, result.Codes)
	assert.Equal(t, []string{"BBBBB-BBBBB-BBBBB-BBBBB-BBBBB"}, result.ExpiredExcluded)
}

func TestExpiredRegionMissing(t *testing.T) {
	html := `<html><body><h2>Codes</h2><p>AAAAA-AAAAA-AAAAA-AAAAA-AAAAA</p></body></html>`

	cfg := defaultExtractConfig()
	cfg.UseClassHint = false
	result := Extract(newTestDocument(t, html), cfg)
	assert.False(t, result.ExpiredFound)
	assert.Len(t, result.Codes, 1)
}

func TestFindExpiredRegionPositions(t *testing.T) {
	doc := newTestDocument(t, nestedHeadingsHTML)
	idx := newDocIndex(doc)

	region := findExpiredRegion(idx, "All Expired SHiFT Codes", BoundaryRank)
	require.NotNil(t, region)

	h2 := doc.Find("h2").First().Nodes[0]
	other := doc.Find("h2").Last().Nodes[0]
	assert.Equal(t, idx.end[h2], region.StartPos)
	assert.Equal(t, idx.order[other], region.EndPos)
	assert.False(t, region.ContainsNode(idx.order[h2]))
	assert.True(t, region.ContainsNode(idx.order[doc.Find("h3").Nodes[0]]))
	assert.False(t, region.ContainsNode(idx.order[other]))

	// Text offsets cover the section body but not the heading itself
	assert.NotContains(t, idx.text[region.StartOffset:region.EndOffset], "All Expired")
	assert.Contains(t, idx.text[region.StartOffset:region.EndOffset], "BBBBB-BBBBB-BBBBB-BBBBB-BBBBB")
	assert.NotContains(t, idx.text[region.StartOffset:region.EndOffset], "Other games")

	assert.Nil(t, findExpiredRegion(idx, "", BoundaryRank))
	var none *Region
	assert.False(t, none.ContainsNode(0))
	assert.False(t, none.ContainsOffset(0))
}
