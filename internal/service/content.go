package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/heymemory/server/internal/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrPageNotFound = errors.New("page not found")

// ContentPage is a static markdown page (help, about, privacy) served
// to users and caregivers.
type ContentPage struct {
	Title       string
	Slug        string
	Content     string
	LastUpdated string
}

type ContentService struct {
	contentDir string
	pages      map[string]*ContentPage
}

func NewContentService(contentDir string) *ContentService {
	return &ContentService{
		contentDir: filepath.Join(contentDir, "pages"),
		pages:      make(map[string]*ContentPage),
	}
}

func (s *ContentService) LoadPages() error {
	files, err := os.ReadDir(s.contentDir)
	if err != nil {
		if os.IsNotExist(err) {
			err = os.MkdirAll(s.contentDir, 0755)
			if err != nil {
				return fmt.Errorf("failed to create pages directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to read pages directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		slug := strings.TrimSuffix(file.Name(), ".md")
		page, err := s.loadPage(slug)
		if err != nil {
			return fmt.Errorf("failed to load page %s: %w", slug, err)
		}

		s.pages[slug] = page
	}

	return nil
}

func (s *ContentService) loadPage(slug string) (*ContentPage, error) {
	filePath := filepath.Join(s.contentDir, slug+".md")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	parser := markdown.NewParser()
	html, meta, err := parser.ParseWithFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	title, _ := meta["title"].(string)
	if title == "" {
		// Generate title from slug
		title = cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
	}

	var lastUpdated string
	dateValue, ok := meta["lastUpdated"]
	if ok {
		lastUpdated = parseDate(dateValue)
	}
	if lastUpdated == "" {
		lastUpdated = info.ModTime().Format("January 2, 2006")
	}

	return &ContentPage{
		Title:       title,
		Slug:        slug,
		Content:     string(html),
		LastUpdated: lastUpdated,
	}, nil
}

func (s *ContentService) Page(slug string) (*ContentPage, error) {
	// Reload to get latest content in development
	err := s.LoadPages()
	if err != nil {
		return nil, err
	}

	page, ok := s.pages[slug]
	if !ok {
		return nil, ErrPageNotFound
	}

	return page, nil
}

// parseDate tries several date formats and returns a display date.
func parseDate(value interface{}) string {
	var dateStr string

	switch v := value.(type) {
	case string:
		dateStr = v
	case time.Time:
		return v.Format("January 2, 2006")
	default:
		return ""
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
		time.RFC3339,
	}

	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t.Format("January 2, 2006")
		}
	}

	// Return as-is if parsing fails
	return dateStr
}
