package services

import (
	"errors"
	"strconv"

	"github.com/SaeedKolahi/language-learners-manager/models"
	"github.com/SaeedKolahi/language-learners-manager/utils"
	"github.com/beevik/etree"
	"gorm.io/gorm"
)

// ExportService renders a back-office XML export of a user's learners and
// their installment schedules.
type ExportService struct {
	db *gorm.DB
}

// NewExportService creates a new ExportService.
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// ExportLearnersXML builds the export document. Dates are rendered in the
// Jalali display format; amounts stay raw minor units for re-import.
func (s *ExportService) ExportLearnersXML(userID uint) ([]byte, error) {
	var learners []models.Learner
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&learners).Error; err != nil {
		return nil, errors.New("failed to load learners")
	}

	var installments []models.Installment
	if err := s.db.Where("user_id = ?", userID).
		Order("learner_id ASC, installment_number ASC").
		Find(&installments).Error; err != nil {
		return nil, errors.New("failed to load installments")
	}

	byLearner := make(map[uint][]models.Installment)
	for _, inst := range installments {
		byLearner[inst.LearnerID] = append(byLearner[inst.LearnerID], inst)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("learners")

	for _, learner := range learners {
		el := root.CreateElement("learner")
		el.CreateAttr("id", strconv.FormatUint(uint64(learner.ID), 10))
		el.CreateElement("name").SetText(learner.Name)
		el.CreateElement("phone").SetText(learner.Phone)
		el.CreateElement("status").SetText(string(learner.Status))

		if learner.HasInstallment {
			plan := el.CreateElement("plan")
			if learner.StartDate != nil {
				plan.CreateElement("startDate").SetText(utils.FormatDatePersian(*learner.StartDate))
			}
			plan.CreateElement("totalAmount").SetText(strconv.FormatInt(learner.TotalAmount, 10))
			plan.CreateElement("installmentCount").SetText(strconv.Itoa(learner.InstallmentCount))
			plan.CreateElement("installmentAmount").SetText(strconv.FormatInt(learner.InstallmentAmount, 10))

			schedule := plan.CreateElement("installments")
			for _, inst := range byLearner[learner.ID] {
				item := schedule.CreateElement("installment")
				item.CreateAttr("number", strconv.Itoa(inst.InstallmentNumber))
				item.CreateElement("amount").SetText(strconv.FormatInt(inst.Amount, 10))
				item.CreateElement("dueDate").SetText(utils.FormatDatePersian(inst.DueDate))
				item.CreateElement("status").SetText(string(inst.Status))
				if inst.PaymentDate != nil {
					item.CreateElement("paymentDate").SetText(utils.FormatDatePersian(*inst.PaymentDate))
				}
			}
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
