package signals

import (
	"siteauditor/internal/model"
)

// Check ids. The catalogue is fixed and exhaustive: Evaluate emits exactly
// one issue per id on every run, absent features included.
const (
	CheckViewportMeta     = "viewport_meta"
	CheckCanonicalTag     = "canonical_tag"
	CheckMetaRobots       = "meta_robots"
	CheckMixedContent     = "https_mixed_content"
	CheckImageLazy        = "image_lazy"
	CheckTitleTag         = "title_tag"
	CheckMetaDescription  = "meta_description"
	CheckH1Tag            = "h1_tag"
	CheckHeadingHierarchy = "heading_hierarchy"
	CheckOpenGraph        = "open_graph"
	CheckImageAlt         = "image_alt"
	CheckImageFilename    = "image_filename"
	CheckInternalLinks    = "internal_links"
	CheckPublishDate      = "publish_date"
	CheckWordCount        = "word_count"
	CheckEntitySchemaOrg  = "entity_schema_org"
	CheckEntityNAP        = "entity_nap"
	CheckEntitySocial     = "entity_social_profiles"
	CheckHygieneFavicon   = "hygiene_favicon"
	CheckHygieneManifest  = "hygiene_manifest"
	CheckHygieneCharset   = "hygiene_charset"
	CheckHygieneHTMLLang  = "hygiene_html_lang"
	CheckHygieneCopyright = "hygiene_copyright_year"
)

func Evaluate(sig Signals) []model.Issue {
	return []model.Issue{
		checkViewport(sig),
		checkCanonical(sig),
		checkMetaRobots(sig),
		checkMixedContent(sig),
		checkImageLazy(sig),
		checkTitle(sig),
		checkMetaDescription(sig),
		checkH1(sig),
		checkHeadingHierarchy(sig),
		checkOpenGraph(sig),
		checkImageAlt(sig),
		checkImageFilename(sig),
		checkInternalLinks(sig),
		checkPublishDate(sig),
		checkWordCount(sig),
		checkOrgSchema(sig),
		checkNAP(sig),
		checkSocialProfiles(sig),
		checkFavicon(sig),
		checkManifest(sig),
		checkCharset(sig),
		checkHTMLLang(sig),
		checkCopyrightYear(sig),
	}
}

func newIssue(sig Signals, id, category string, status model.IssueStatus, details map[string]interface{}, fix string) model.Issue {
	iss := model.Issue{
		ID:       id,
		Status:   status,
		Details:  details,
		Page:     sig.PageURL,
		Category: category,
	}
	if status != model.StatusPass {
		iss.Fix = fix
	}
	return iss
}

func fraction(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func checkViewport(sig Signals) model.Issue {
	status := model.StatusFail
	if sig.HasViewport {
		status = model.StatusPass
	}
	return newIssue(sig, CheckViewportMeta, model.CategoryTechnicalSEO, status,
		map[string]interface{}{"present": sig.HasViewport},
		`Add <meta name="viewport" content="width=device-width, initial-scale=1"> for mobile rendering.`)
}

func checkCanonical(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.CanonicalSelf {
		status = model.StatusPass
	}
	return newIssue(sig, CheckCanonicalTag, model.CategoryTechnicalSEO, status,
		map[string]interface{}{"canonical": sig.Canonical},
		"Add a canonical link that references the page's own URL.")
}

func checkMetaRobots(sig Signals) model.Issue {
	status := model.StatusPass
	if sig.RobotsBlocked {
		status = model.StatusFail
	}
	return newIssue(sig, CheckMetaRobots, model.CategoryTechnicalSEO, status,
		map[string]interface{}{"blocking_directive": sig.RobotsBlocked},
		"Remove noindex/nofollow directives unless the page must stay out of search engines.")
}

func checkMixedContent(sig Signals) model.Issue {
	n := sig.MixedContentCount
	status := model.StatusFail
	switch {
	case n == 0:
		status = model.StatusPass
	case n <= 2:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckMixedContent, model.CategoryTechnicalSEO, status,
		map[string]interface{}{"count": n},
		"Serve every asset and link over https:// to avoid mixed-content blocking.")
}

func checkImageLazy(sig Signals) model.Issue {
	f := fraction(sig.ImagesLazy, sig.ImageCount)
	status := model.StatusFail
	switch {
	case f >= 0.80:
		status = model.StatusPass
	case f >= 0.50:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckImageLazy, model.CategoryTechnicalSEO, status,
		map[string]interface{}{"images": sig.ImageCount, "lazy": sig.ImagesLazy},
		`Add loading="lazy" to below-the-fold images.`)
}

func checkTitle(sig Signals) model.Issue {
	n := sig.TitleLength
	status := model.StatusFail
	switch {
	case n >= 15 && n <= 60:
		status = model.StatusPass
	case n >= 8 && n <= 70:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckTitleTag, model.CategoryOnpageSEO, status,
		map[string]interface{}{"length": n},
		"Write a 15-60 character title naming the brand and the page topic.")
}

func checkMetaDescription(sig Signals) model.Issue {
	n := sig.DescriptionLength
	status := model.StatusFail
	switch {
	case n >= 70 && n <= 160:
		status = model.StatusPass
	case n > 0:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckMetaDescription, model.CategoryOnpageSEO, status,
		map[string]interface{}{"length": n},
		"Add a 70-160 character meta description summarising the page.")
}

func checkH1(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.H1Count == 1 {
		status = model.StatusPass
	}
	return newIssue(sig, CheckH1Tag, model.CategoryOnpageSEO, status,
		map[string]interface{}{"count": sig.H1Count},
		"Use exactly one H1 heading per page.")
}

func checkHeadingHierarchy(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HierarchyValid {
		status = model.StatusPass
	}
	return newIssue(sig, CheckHeadingHierarchy, model.CategoryOnpageSEO, status,
		map[string]interface{}{"ordered": sig.HierarchyValid},
		"Step heading levels down one at a time instead of skipping levels.")
}

func checkOpenGraph(sig Signals) model.Issue {
	missing := sig.MissingOpenGraph
	status := model.StatusFail
	switch {
	case len(missing) == 0:
		status = model.StatusPass
	case len(missing) <= 2:
		status = model.StatusWarn
	}
	details := map[string]interface{}{"missing": missing}
	return newIssue(sig, CheckOpenGraph, model.CategoryOnpageSEO, status, details,
		"Add og:title, og:description and og:image tags for rich link previews.")
}

func checkImageAlt(sig Signals) model.Issue {
	f := fraction(sig.ImagesMissingAlt, sig.ImageCount)
	status := model.StatusFail
	switch {
	case f <= 0.10:
		status = model.StatusPass
	case f <= 0.30:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckImageAlt, model.CategoryOnpageSEO, status,
		map[string]interface{}{"images": sig.ImageCount, "missing_alt": sig.ImagesMissingAlt},
		"Describe every meaningful image with an alt attribute.")
}

func checkImageFilename(sig Signals) model.Issue {
	f := fraction(sig.ImagesNonGeneric, sig.ImageCount)
	status := model.StatusFail
	switch {
	case f >= 0.50:
		status = model.StatusPass
	case f >= 0.30:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckImageFilename, model.CategoryOnpageSEO, status,
		map[string]interface{}{"images": sig.ImageCount, "descriptive": sig.ImagesNonGeneric},
		"Name image files descriptively instead of camera defaults like IMG_1234.jpg.")
}

func checkInternalLinks(sig Signals) model.Issue {
	status := model.StatusFail
	switch {
	case sig.InternalLinks >= 5 && sig.AnchorDiversity >= 0.4:
		status = model.StatusPass
	case sig.InternalLinks >= 3:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckInternalLinks, model.CategoryOnpageSEO, status,
		map[string]interface{}{"count": sig.InternalLinks, "diversity": sig.AnchorDiversity},
		"Link related pages with at least five varied, descriptive anchor texts.")
}

func checkPublishDate(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasDateSignal {
		status = model.StatusPass
	}
	return newIssue(sig, CheckPublishDate, model.CategoryOnpageSEO, status,
		map[string]interface{}{"present": sig.HasDateSignal},
		"Expose a published or modified date via meta tags or a <time> element.")
}

func checkWordCount(sig Signals) model.Issue {
	n := sig.WordCount
	status := model.StatusFail
	switch {
	case n >= 300:
		status = model.StatusPass
	case n >= 200:
		status = model.StatusWarn
	}
	return newIssue(sig, CheckWordCount, model.CategoryOnpageSEO, status,
		map[string]interface{}{"words": n},
		"Add substantive visible copy; thin pages rank and convert poorly.")
}

func checkOrgSchema(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasOrgSchema {
		status = model.StatusPass
	}
	return newIssue(sig, CheckEntitySchemaOrg, model.CategoryEntityTrust, status,
		map[string]interface{}{"present": sig.HasOrgSchema},
		"Add Organization or LocalBusiness structured data identifying who runs the site.")
}

func checkNAP(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasNAP {
		status = model.StatusPass
	}
	return newIssue(sig, CheckEntityNAP, model.CategoryEntityTrust, status,
		map[string]interface{}{"present": sig.HasNAP},
		"Publish a telephone number or postal address, ideally in structured data.")
}

func checkSocialProfiles(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasSocialProfile {
		status = model.StatusPass
	}
	return newIssue(sig, CheckEntitySocial, model.CategoryEntityTrust, status,
		map[string]interface{}{"present": sig.HasSocialProfile},
		"Link your social profiles or list them as sameAs in structured data.")
}

func checkFavicon(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasFavicon {
		status = model.StatusPass
	}
	return newIssue(sig, CheckHygieneFavicon, model.CategoryHygiene, status,
		map[string]interface{}{"present": sig.HasFavicon},
		"Add a favicon link so browsers and search results show your icon.")
}

func checkManifest(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasManifest {
		status = model.StatusPass
	}
	return newIssue(sig, CheckHygieneManifest, model.CategoryHygiene, status,
		map[string]interface{}{"present": sig.HasManifest},
		`Add <link rel="manifest"> pointing at a web app manifest.`)
}

func checkCharset(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasCharset {
		status = model.StatusPass
	}
	return newIssue(sig, CheckHygieneCharset, model.CategoryHygiene, status,
		map[string]interface{}{"present": sig.HasCharset},
		`Declare the document charset with <meta charset="utf-8">.`)
}

func checkHTMLLang(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasHTMLLang {
		status = model.StatusPass
	}
	return newIssue(sig, CheckHygieneHTMLLang, model.CategoryHygiene, status,
		map[string]interface{}{"present": sig.HasHTMLLang},
		"Set the lang attribute on the <html> element.")
}

func checkCopyrightYear(sig Signals) model.Issue {
	status := model.StatusWarn
	if sig.HasCurrentYear {
		status = model.StatusPass
	}
	return newIssue(sig, CheckHygieneCopyright, model.CategoryHygiene, status,
		map[string]interface{}{"present": sig.HasCurrentYear},
		"Update the visible copyright year; stale years read as an unmaintained site.")
}
