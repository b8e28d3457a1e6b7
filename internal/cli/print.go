package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"customerforge/internal/entity"

	"github.com/google/uuid"
)

func printCustomer(w io.Writer, c *entity.Customer) {
	fmt.Fprintf(w, "id:       %s\n", c.ID)
	fmt.Fprintf(w, "name:     %s\n", c.FullName)
	fmt.Fprintf(w, "email:    %s\n", c.Email)
	fmt.Fprintf(w, "address:  %s\n", c.FullAddress)
	if c.AddressSource != "" {
		fmt.Fprintf(w, "source:   %s\n", c.AddressSource)
	}
	if c.PrimaryPhone != nil {
		fmt.Fprintf(w, "phone:    %s\n", *c.PrimaryPhone)
	}
	if c.VerificationCode != nil {
		fmt.Fprintf(w, "code:     %s\n", *c.VerificationCode)
	}
	fmt.Fprintf(w, "verified: %v\n", c.VerificationCompleted)
}

func printCustomerTable(w io.Writer, customers []entity.Customer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tVERIFIED")
	for _, c := range customers {
		phone := "-"
		if c.PrimaryPhone != nil {
			phone = *c.PrimaryPhone
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n",
			shortID(c.ID), c.FullName, c.Email, phone, c.VerificationCompleted)
	}
	tw.Flush()
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func printAddress(w io.Writer, line1, city, state, zip, business string) {
	if business != "" {
		fmt.Fprintf(w, "business: %s\n", business)
	}
	fmt.Fprintf(w, "address:  %s, %s, %s %s\n", line1, city, state, zip)
}
