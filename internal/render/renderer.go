package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/PuerkitoBio/goquery"
	"github.com/bilgisen/newsflow/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Page describes one rendered sub-category page
type Page struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Path        string `json:"path"`
	RelPath     string `json:"rel_path"`
	Count       int    `json:"count"`
}

type Renderer struct {
	outputDir string
	source    string
	languages []string
	location  *time.Location
}

// NewRenderer writes pages below outputDir showing source followed by targets.
func NewRenderer(outputDir, source string, targets []string) *Renderer {
	langs := []string{source}
	for _, t := range targets {
		if t != source {
			langs = append(langs, t)
		}
	}
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.UTC
	}
	return &Renderer{outputDir: outputDir, source: source, languages: langs, location: loc}
}

// PageFileName returns the file name of a sub-category page.
func PageFileName(subCategory string) string {
	return strings.ReplaceAll(subCategory, "/", "_") + "_news.html"
}

type languageView struct {
	Code   string
	Name   string
	Active bool
}

type contentView struct {
	Lang    string
	Active  bool
	Title   string
	Summary []string
	Badge   string
}

type articleView struct {
	Link           string
	ImageURL       string
	NoImage        string
	Source         string
	SourceLabel    string
	Published      string
	PublishedLabel string
	GradeClass     string
	Contents       []contentView
}

type pageView struct {
	Source      string
	Category    string
	SubCategory string
	Languages   []languageView
	Articles    []articleView
}

// RenderCategory writes the page of one sub-category and returns its description.
func (r *Renderer) RenderCategory(category, subCategory string, items []models.NewsItem) (Page, error) {
	view := pageView{
		Source:      r.source,
		Category:    category,
		SubCategory: subCategory,
	}
	for _, lang := range r.languages {
		view.Languages = append(view.Languages, languageView{
			Code:   lang,
			Name:   LabelsFor(lang).Language,
			Active: lang == r.source,
		})
	}
	for _, item := range items {
		view.Articles = append(view.Articles, r.article(item))
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "page.html", view); err != nil {
		return Page{}, fmt.Errorf("failed to render %s/%s: %w", category, subCategory, err)
	}

	rel := filepath.Join(category, PageFileName(subCategory))
	path := filepath.Join(r.outputDir, rel)
	if err := writeFile(path, buf.Bytes()); err != nil {
		return Page{}, err
	}
	return Page{
		Category:    category,
		SubCategory: subCategory,
		Path:        path,
		RelPath:     filepath.ToSlash(rel),
		Count:       len(items),
	}, nil
}

func (r *Renderer) article(item models.NewsItem) articleView {
	src := LabelsFor(r.source)
	grade := item.TrustGrade
	if !grade.Valid() {
		grade = models.TrustUnknown
	}
	a := articleView{
		Link:           item.Link,
		ImageURL:       item.ImageURL,
		NoImage:        src.NoImage,
		Source:         item.Source,
		SourceLabel:    src.Source,
		PublishedLabel: src.Published,
		GradeClass:     string(grade),
	}
	if !item.PublishedAt.IsZero() {
		a.Published = item.PublishedAt.In(r.location).Format("2006-01-02 15:04")
	}
	for _, lang := range r.languages {
		summary := item.Summary
		title := item.Title
		if lang != r.source {
			title = item.TitleIn(lang)
			summary = item.SummaryIn(lang)
		}
		a.Contents = append(a.Contents, contentView{
			Lang:    lang,
			Active:  lang == r.source,
			Title:   title,
			Summary: splitLines(summary),
			Badge:   GradeLabel(lang, grade),
		})
	}
	return a
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

type indexGroup struct {
	Category string
	Pages    []Page
}

// RenderIndex writes index.html linking every page, grouped by category in
// the order given by categories.
func (r *Renderer) RenderIndex(title string, categories []string, pages []Page) (string, error) {
	byCategory := make(map[string][]Page)
	for _, p := range pages {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	var groups []indexGroup
	seen := make(map[string]bool)
	for _, c := range categories {
		if ps, ok := byCategory[c]; ok {
			groups = append(groups, indexGroup{Category: c, Pages: ps})
			seen[c] = true
		}
	}
	var rest []string
	for c := range byCategory {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	for _, c := range rest {
		groups = append(groups, indexGroup{Category: c, Pages: byCategory[c]})
	}

	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "index.html", map[string]interface{}{
		"Source":    r.source,
		"Title":     title,
		"Generated": time.Now().In(r.location).Format("2006-01-02 15:04"),
		"Groups":    groups,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render index: %w", err)
	}

	path := filepath.Join(r.outputDir, "index.html")
	if err := writeFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// ScanPages lists the pages already present below the output directory.
func (r *Renderer) ScanPages() ([]Page, error) {
	var pages []Page
	err := filepath.WalkDir(r.outputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), "_news.html") {
			return nil
		}
		rel, err := filepath.Rel(r.outputDir, path)
		if err != nil {
			return err
		}
		page := Page{
			Category:    filepath.Dir(rel),
			SubCategory: strings.ReplaceAll(strings.TrimSuffix(d.Name(), "_news.html"), "_", "/"),
			Path:        path,
			RelPath:     filepath.ToSlash(rel),
			Count:       -1,
		}
		// the file name loses "_" versus "/", the page head does not
		readPageMeta(&page)
		pages = append(pages, page)
		return nil
	})
	return pages, err
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// readPageMeta fills category, keyword and count from the meta tags written by RenderCategory.
func readPageMeta(p *Page) {
	f, err := os.Open(p.Path)
	if err != nil {
		return
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return
	}
	meta := func(name string) (string, bool) {
		return doc.Find(`meta[name="` + name + `"]`).Attr("content")
	}
	if cat, ok := meta("news-category"); ok && cat != "" {
		p.Category = cat
	}
	if sub, ok := meta("news-sub-category"); ok && sub != "" {
		p.SubCategory = sub
	}
	if n, ok := meta("news-count"); ok {
		if count, err := strconv.Atoi(n); err == nil {
			p.Count = count
		}
	}
}
