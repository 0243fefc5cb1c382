package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// News — новость рынка, импортируется из MySQL. SourceID — первичный ключ
// исходной таблицы, по нему выполняется upsert.
type News struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceID  int64              `bson:"source_id" json:"source_id"`
	Headline  string             `bson:"headline" json:"headline"`
	Content   string             `bson:"content" json:"content"`
	Date      time.Time          `bson:"date" json:"date"`
	Image     string             `bson:"image" json:"image"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Faq — вопрос-ответ справочного раздела.
type Faq struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"answer"`
	Category  string             `bson:"category" json:"category"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Wiki — статья глоссария скоринговой модели. SourceID — ключ исходной
// таблицы MySQL.
type Wiki struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceID         int64              `bson:"source_id" json:"source_id"`
	FieldName        string             `bson:"field_name" json:"field_name"`
	FieldCategory    string             `bson:"field_category" json:"field_category"`
	WhatIsIt         string             `bson:"what_is_it" json:"what_is_it"`
	ScoreMin         *float64           `bson:"score_min" json:"score_min"`
	ScoreMax         *float64           `bson:"score_max" json:"score_max"`
	RangeLabel       string             `bson:"range_label" json:"range_label"`
	RangeEmoji       string             `bson:"range_emoji" json:"range_emoji"`
	RangeDescription string             `bson:"range_description" json:"range_description"`
	ActionableInsight string            `bson:"actionable_insight" json:"actionable_insight"`
	DisplayOrder     int                `bson:"display_order" json:"display_order"`
}
