// Package crawling discovers the key pages of a brand site and assembles
// the multi-page text corpus the analysis stages read.
package crawling

import "fmt"

// CrawlError represents a general crawling failure.
type CrawlError struct {
	Message string
	Cause   error
}

func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("crawl error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("crawl error: %s", e.Message)
}

func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// LinkExtractionError represents a failure extracting links from HTML.
type LinkExtractionError struct {
	Message string
	Cause   error
}

func (e *LinkExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link extraction error: %s", e.Message)
}

func (e *LinkExtractionError) Unwrap() error {
	return e.Cause
}

// RefineError represents a failure in LLM link refinement.
type RefineError struct {
	Message string
	Cause   error
}

func (e *RefineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link refinement error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link refinement error: %s", e.Message)
}

func (e *RefineError) Unwrap() error {
	return e.Cause
}
