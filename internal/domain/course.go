package domain

import "time"

// CourseLevel is the difficulty level of a course
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "BEGINNER"
	CourseLevelIntermediate CourseLevel = "INTERMEDIATE"
	CourseLevelAdvanced     CourseLevel = "ADVANCED"
	CourseLevelExpert       CourseLevel = "EXPERT"
)

// CourseStatus is the publication status of a course
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

// Category groups courses
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parentId,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Tag labels courses
type Tag struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	UsageCount int    `json:"usageCount"`
}

// Course represents a course as returned by the API
type Course struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Slug             string       `json:"slug"`
	ShortDescription string       `json:"shortDescription,omitempty"`
	Description      string       `json:"description,omitempty"`
	ThumbnailURL     string       `json:"thumbnailUrl,omitempty"`
	Level            CourseLevel  `json:"level"`
	Status           CourseStatus `json:"status"`
	Price            *float64     `json:"price,omitempty"`
	DiscountPrice    *float64     `json:"discountPrice,omitempty"`
	Currency         string       `json:"currency,omitempty"`
	DurationHours    *int         `json:"durationHours,omitempty"`
	MaxStudents      *int         `json:"maxStudents,omitempty"`
	Language         string       `json:"language,omitempty"`
	PublishedAt      *time.Time   `json:"publishedAt,omitempty"`
	Instructor       *User        `json:"instructor,omitempty"`
	Category         *Category    `json:"category,omitempty"`
	Tags             []Tag        `json:"tags,omitempty"`
	EnrollmentCount  int          `json:"enrollmentCount"`
	AverageRating    *float64     `json:"averageRating,omitempty"`
	CreatedAt        *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time   `json:"updatedAt,omitempty"`
}

// CourseRequest is the body of POST /courses and PUT /courses/{id}
type CourseRequest struct {
	Title              string      `json:"title,omitempty"`
	ShortDescription   string      `json:"shortDescription,omitempty"`
	Description        string      `json:"description,omitempty"`
	Level              CourseLevel `json:"level,omitempty"`
	Price              *float64    `json:"price,omitempty"`
	DiscountPrice      *float64    `json:"discountPrice,omitempty"`
	DurationHours      *int        `json:"durationHours,omitempty"`
	MaxStudents        *int        `json:"maxStudents,omitempty"`
	Prerequisites      string      `json:"prerequisites,omitempty"`
	LearningObjectives string      `json:"learningObjectives,omitempty"`
	TargetAudience     string      `json:"targetAudience,omitempty"`
	CategoryID         string      `json:"categoryId,omitempty"`
	TagIDs             []string    `json:"tagIds,omitempty"`
}

// CourseStats is returned by GET /courses/{id}/stats
type CourseStats struct {
	TotalEnrollments      int     `json:"totalEnrollments"`
	ActiveEnrollments     int     `json:"activeEnrollments"`
	CompletedEnrollments  int     `json:"completedEnrollments"`
	AverageProgress       float64 `json:"averageProgress"`
	AverageCompletionTime float64 `json:"averageCompletionTime"`
	TotalRevenue          float64 `json:"totalRevenue"`
}

// CourseFilters narrows course listings and searches
type CourseFilters struct {
	Level      CourseLevel `json:"level,omitempty"`
	CategoryID string      `json:"categoryId,omitempty"`
	MinPrice   *float64    `json:"minPrice,omitempty"`
	MaxPrice   *float64    `json:"maxPrice,omitempty"`
}

// Page is the paged listing shape of the API
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	NumberOfElements int   `json:"numberOfElements"`
	Empty            bool  `json:"empty"`
	Pageable         struct {
		PageNumber int `json:"pageNumber"`
		PageSize   int `json:"pageSize"`
	} `json:"pageable"`
}
