package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/nmwangui/testprep/configs"
	"github.com/nmwangui/testprep/database"
	"github.com/nmwangui/testprep/models"
	"gorm.io/gorm"
)

// GenerateResultsReport renders a PDF results report for a completed test and
// stores its URL on the test row. Best-effort and asynchronous: a failure is
// logged and the test simply has no report link.
func GenerateResultsReport(testID uuid.UUID) {
	var test models.Test
	if err := database.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.position ASC") }).
		Preload("Topic").Preload("User").
		First(&test, "id = ?", testID).Error; err != nil {
		log.Printf("🔥 Report generation: failed to load test %s: %v", testID, err)
		return
	}
	if test.Status != models.TestStatusCompleted || test.Score == nil || test.CompletedAt == nil {
		log.Printf("Report generation skipped for test %s: not completed", testID)
		return
	}

	htmlData, err := renderReportHTML(test)
	if err != nil {
		log.Printf("🔥 Failed to render report HTML for test %s: %v", testID, err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate report PDF for test %s: %v", testID, err)
		return
	}

	reportURL, err := uploadReportToCloudinary(pdfBytes, test.UserID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload report for test %s: %v", testID, err)
		return
	}

	if err := database.DB.Model(&models.Test{}).Where("id = ?", testID).
		Update("report_url", reportURL).Error; err != nil {
		log.Printf("🔥 Failed to store report URL for test %s: %v", testID, err)
		return
	}
	log.Printf("✅ Results report ready for test %s", testID)
}

func renderReportHTML(test models.Test) (string, error) {
	tmpl, err := template.ParseFiles("templates/report.html")
	if err != nil {
		return "", err
	}

	type reportQuestion struct {
		Position      int
		Text          string
		UserAnswer    string
		CorrectAnswer string
		Explanation   string
		IsCorrect     bool
	}

	correctCount := 0
	questions := make([]reportQuestion, len(test.Questions))
	for i, q := range test.Questions {
		rq := reportQuestion{Position: q.Position, Text: q.Text}
		if q.UserAnswer != nil {
			rq.UserAnswer = *q.UserAnswer
		}
		if q.CorrectAnswer != nil {
			rq.CorrectAnswer = *q.CorrectAnswer
		}
		if q.Explanation != nil {
			rq.Explanation = *q.Explanation
		}
		if q.IsCorrect != nil && *q.IsCorrect {
			rq.IsCorrect = true
			correctCount++
		}
		questions[i] = rq
	}

	data := struct {
		UserName     string
		TestTitle    string
		TopicName    string
		Score        int
		CorrectCount int
		TotalCount   int
		CompletedAt  string
		Questions    []reportQuestion
	}{
		UserName:     test.User.Name,
		TestTitle:    test.Title,
		TopicName:    test.Topic.Name,
		Score:        *test.Score,
		CorrectCount: correctCount,
		TotalCount:   len(test.Questions),
		CompletedAt:  test.CompletedAt.Format("January 2, 2006"),
		Questions:    questions,
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReportToCloudinary(fileBytes []byte, userID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("reports/%s_%s", userID, uuid.New().String()),
		Folder:       "testprep_reports",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
