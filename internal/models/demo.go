package models

// DemoRecords is the built-in record set used when neither the server
// document nor the local cache can be loaded.
func DemoRecords() []PersonRecord {
	return []PersonRecord{
		{
			ID:           IntID(1),
			Name:         "Aisha Patel",
			Age:          8,
			Gender:       "female",
			Category:     CategorySeparated,
			Description:  "Black hair, brown eyes, small build. Speaks Gujarati and English. Wears glasses with purple frames.",
			Location:     "Mumbai, India",
			DateReported: "2023-04-12",
			PhotoURL:     PlaceholderPhoto,
			ContactInfo: ContactInfo{
				Name:  "Mumbai Child Services",
				Email: "childservices@mumbai.gov.in",
				Phone: "+91 22 2345 6789",
			},
			AdditionalDetails: "Separated from family during a crowded festival in Mumbai on April 10, 2023.",
		},
	}
}
