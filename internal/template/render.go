// Package template renders tenant-authored message templates. Placeholders
// use mustache-style braces and are substituted from the contact and the
// current time; rendering is a pure function with no side effects.
package template

import (
	"strings"
	"time"
)

// Render substitutes the supported placeholders in body:
//
//	{{name}}       contact full name
//	{{firstName}}  first word of the contact name
//	{{number}}     contact phone number
//	{{email}}      contact email
//	{{greeting}}   time-of-day greeting
//	{{date}}       current date (02-01-2006)
//	{{hour}}       current time (15:04)
//	{{protocol}}   timestamp-derived protocol number
//
// Unknown placeholders are left untouched.
func Render(body string, contact Contact) string {
	return renderAt(body, contact, time.Now())
}

// Contact is the minimal shape rendering needs; it mirrors the domain
// contact without importing it, keeping the package dependency-free.
type Contact struct {
	Name   string
	Number string
	Email  string
}

func renderAt(body string, contact Contact, now time.Time) string {
	replacer := strings.NewReplacer(
		"{{name}}", contact.Name,
		"{{firstName}}", firstName(contact.Name),
		"{{number}}", contact.Number,
		"{{email}}", contact.Email,
		"{{greeting}}", greeting(now),
		"{{date}}", now.Format("02-01-2006"),
		"{{hour}}", now.Format("15:04"),
		"{{protocol}}", protocol(now),
	)
	return replacer.Replace(body)
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func greeting(now time.Time) string {
	switch hour := now.Hour(); {
	case hour >= 6 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 18:
		return "Good afternoon"
	case hour >= 18 && hour < 23:
		return "Good evening"
	}
	return "Good night"
}

func protocol(now time.Time) string {
	return now.Format("20060102150405")
}
