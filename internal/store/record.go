package store

import "uriage/internal/core"

// remoteRecord is the cloud-table row shape. The remote table uses
// snake_case column names; the in-memory model is camelCase, so records are
// mapped explicitly in both directions.
type remoteRecord struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Client     string   `json:"client"`
	Date       string   `json:"date"`
	Sales      core.Yen `json:"sales"`
	Expenses   core.Yen `json:"expenses"`
	Note       string   `json:"note"`
	IsInvoiced bool     `json:"is_invoiced"`
	IsPaid     bool     `json:"is_paid"`
}

func toRemote(p core.Project) remoteRecord {
	return remoteRecord{
		ID:         p.ID,
		Name:       p.Name,
		Client:     p.Client,
		Date:       p.Date,
		Sales:      p.Sales,
		Expenses:   p.Expenses,
		Note:       p.Note,
		IsInvoiced: p.IsInvoiced,
		IsPaid:     p.IsPaid,
	}
}

func fromRemote(r remoteRecord) core.Project {
	return core.Project{
		ID:         r.ID,
		Name:       r.Name,
		Client:     r.Client,
		Date:       r.Date,
		Sales:      r.Sales,
		Expenses:   r.Expenses,
		Note:       r.Note,
		IsInvoiced: r.IsInvoiced,
		IsPaid:     r.IsPaid,
	}
}
