package model

import "mime/multipart"

// Upload roles, also the multipart field names of POST /evaluate.
const (
	RoleQuestion        = "question"
	RoleStudentAnswer   = "student_answer"
	RoleReferenceAnswer = "reference_answer"
)

type EvaluationUploads struct {
	Question        *multipart.FileHeader `form:"question"`
	StudentAnswer   *multipart.FileHeader `form:"student_answer"`
	ReferenceAnswer *multipart.FileHeader `form:"reference_answer"`
}

// ByRole lists the uploads in processing order.
func (u *EvaluationUploads) ByRole() []RoleUpload {
	return []RoleUpload{
		{Role: RoleQuestion, File: u.Question},
		{Role: RoleStudentAnswer, File: u.StudentAnswer},
		{Role: RoleReferenceAnswer, File: u.ReferenceAnswer},
	}
}

type RoleUpload struct {
	Role string
	File *multipart.FileHeader
}

type EvaluationResult struct {
	Success             bool   `json:"success"`
	Score               int    `json:"score"`
	QuestionText        string `json:"question_text"`
	StudentAnswerText   string `json:"student_answer_text"`
	ReferenceAnswerText string `json:"reference_answer_text"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	ModelAvailable bool   `json:"model_available"`
	OCRAvailable   bool   `json:"ocr_available"`
}

type PredictionRequest struct {
	Inputs string `json:"inputs"`
}

// PredictionResponse carries either the sigmoid output or the raw logit of
// the scoring head.
type PredictionResponse struct {
	Score *float64 `json:"score,omitempty"`
	Logit *float64 `json:"logit,omitempty"`
}
