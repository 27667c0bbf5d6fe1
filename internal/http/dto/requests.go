package dto

type ParseRequest struct {
	Text string `json:"text"`
}

type SetNLPKeyRequest struct {
	APIKey string `json:"api_key"`
}
