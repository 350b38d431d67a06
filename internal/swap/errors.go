package swap

import "fmt"

// MissingParameterError indicates a command that required a background
// reference (URL or search query) was given none.
type MissingParameterError struct {
	Hint string
}

func (e *MissingParameterError) Error() string {
	return "missing parameter: " + e.Hint
}

// NoImagesError indicates the image search returned no candidates.
type NoImagesError struct {
	Query string
}

func (e *NoImagesError) Error() string {
	return fmt.Sprintf("no images found for %q", e.Query)
}

// NoFacesError is the aggregated failure after every candidate
// background was tried: none had a detectable face. It names the
// original query or URL, not per-candidate diagnostics.
type NoFacesError struct {
	Source string
}

func (e *NoFacesError) Error() string {
	return fmt.Sprintf("couldn't find any face on images for %q", e.Source)
}
