package rag

// DocumentReference is a cited source document for one answer.
// Built from a single search hit that passed the similarity threshold.
type DocumentReference struct {
	// Name is the document name as stored in the index.
	Name string `json:"document_name"`
	// Page is the page number within the document.
	Page int `json:"page_number"`
	// URL is the signed access URL of the document.
	URL string `json:"sas_url"`
}

// Link is a markdown link found in rendered text.
type Link struct {
	Text        string
	Destination string
}
