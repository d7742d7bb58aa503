package extract

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/moverscan/internal/model"
)

// StructuralExtractor applies fixed selectors to directory-style listing
// pages: repeated listing elements, each carrying name, phone, website and
// rating sub-fields. A page matching none of the selectors yields an empty
// batch, not an error; only a document parse failure below the structural
// layer errors.
type StructuralExtractor struct {
	selectors Selectors
	now       func() time.Time
}

// Selectors names the expected page structure. Zero values fall back to
// the layout used by the mover directories this pipeline targets.
type Selectors struct {
	Listing string // container for one company
	Name    string
	Phone   string
	Website string // anchor whose href is the company site
	Rating  string
}

// DefaultSelectors matches the listing layout of the mover directories.
var DefaultSelectors = Selectors{
	Listing: ".listing, .company-listing, article.company",
	Name:    ".company-name, h2, h3",
	Phone:   ".phone, a[href^='tel:']",
	Website: "a.website, a.company-website",
	Rating:  ".rating",
}

// NewStructural creates a StructuralExtractor. Empty selector fields are
// filled from DefaultSelectors.
func NewStructural(sel Selectors) *StructuralExtractor {
	if sel.Listing == "" {
		sel.Listing = DefaultSelectors.Listing
	}
	if sel.Name == "" {
		sel.Name = DefaultSelectors.Name
	}
	if sel.Phone == "" {
		sel.Phone = DefaultSelectors.Phone
	}
	if sel.Website == "" {
		sel.Website = DefaultSelectors.Website
	}
	if sel.Rating == "" {
		sel.Rating = DefaultSelectors.Rating
	}
	return &StructuralExtractor{selectors: sel, now: time.Now}
}

func (s *StructuralExtractor) Name() string { return "structural" }

func (s *StructuralExtractor) Extract(_ context.Context, content Content) (model.CandidateBatch, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.Body))
	if err != nil {
		return nil, eris.Wrapf(err, "structural: parse document %s", content.URL)
	}

	var batch model.CandidateBatch
	doc.Find(s.selectors.Listing).Each(func(_ int, sel *goquery.Selection) {
		rec := model.CompanyRecord{
			Name:    strings.TrimSpace(sel.Find(s.selectors.Name).First().Text()),
			Phone:   extractPhone(sel, s.selectors.Phone),
			Website: extractHref(sel, s.selectors.Website),
		}
		if txt := strings.TrimSpace(sel.Find(s.selectors.Rating).First().Text()); txt != "" {
			if v, err := strconv.ParseFloat(strings.Fields(txt)[0], 64); err == nil {
				rec.Rating = &v
			}
		}
		if rec.Name == "" {
			return
		}
		batch = append(batch, rec)
	})

	zap.L().Debug("extract: structural pass complete",
		zap.String("source", content.Source),
		zap.String("url", content.URL),
		zap.Int("candidates", len(batch)),
	)
	return stamp(batch.Sanitize(), content.Source, s.now().UTC()), nil
}

// extractPhone reads the phone sub-field, preferring tel: hrefs over text.
func extractPhone(sel *goquery.Selection, phoneSel string) string {
	node := sel.Find(phoneSel).First()
	if href, ok := node.Attr("href"); ok && strings.HasPrefix(href, "tel:") {
		return strings.TrimPrefix(href, "tel:")
	}
	return strings.TrimSpace(node.Text())
}

func extractHref(sel *goquery.Selection, hrefSel string) string {
	href, _ := sel.Find(hrefSel).First().Attr("href")
	return href
}
