package controllers

import (
	"vermietung-backend/database"
	"vermietung-backend/middlewares"
	"vermietung-backend/models"
	"vermietung-backend/services"
	"vermietung-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type createCustomerDTO struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Zip          string `json:"zip"`
	IDNumber     string `json:"id_number"`
}

func CreateCustomer(c *fiber.Ctx) error {
	var dto createCustomerDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	customer := models.Customer{
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		PhoneNumber:  dto.PhoneNumber,
		MobileNumber: dto.MobileNumber,
		Address:      dto.Address,
		City:         dto.City,
		Country:      dto.Country,
		Zip:          dto.Zip,
		IDNumber:     dto.IDNumber,
		Active:       true,
	}
	if err := database.FromCtx(c).Create(&customer).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func GetCustomers(c *fiber.Ctx) error {
	var customers []models.Customer
	if err := database.FromCtx(c).Where("active").Order("last_name").Find(&customers).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"customers": customers,
		"message":   "success",
	})
}

func GetCustomer(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	var customer models.Customer
	if err := database.FromCtx(c).First(&customer, id).Error; err != nil {
		return services.ErrNotFound
	}
	return c.JSON(customer)
}

type updateCustomerDTO struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email" validate:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number"`
	MobileNumber *string `json:"mobile_number"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	Country      *string `json:"country"`
	Zip          *string `json:"zip"`
	IDNumber     *string `json:"id_number"`
}

func UpdateCustomer(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	var dto updateCustomerDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return &services.ValidationError{Field: "body", Reason: "no fields to update"}
	}

	db := database.FromCtx(c)
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		return services.ErrNotFound
	}
	if err := db.Model(&customer).Updates(updates).Error; err != nil {
		return err
	}
	return c.JSON(customer)
}
