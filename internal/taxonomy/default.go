package taxonomy

// Default returns the built-in project folder structure.
func Default() *Taxonomy {
	return defaultTaxonomy
}

var defaultTaxonomy = MustNew(
	Category{Name: "00_Navodila"},
	Category{Name: "01_Pogodba_Admin", Subcategories: []string{
		"01_Ponudbe", "02_Pogodba", "03_Dodatki_Pogodbi",
		"04_Imenovanja", "05_Odlocbe", "06_Zavarovanja",
	}},
	Category{Name: "02_Projektna_dok", Subcategories: []string{
		"01_IDZ", "02_PGD", "03_PZI", "04_PID", "05_Soglasja",
	}},
	Category{Name: "03_Izvedbena_dok", Subcategories: []string{
		"01_Atesti", "02_Delavniski_Nacrti", "03_Izjave_Certifikati", "04_Tehnicna_Dok",
	}},
	Category{Name: "04_Planiranje", Subcategories: []string{
		"01_Terminski_Plan", "02_Fazni_Plan", "03_Sestanki",
	}},
	Category{Name: "05_Nabava", Subcategories: []string{
		"01_Narocila", "02_Podizvajalci", "03_Dobavnice", "04_Ponudbe_Dobav",
	}},
	Category{Name: "06_Financno", Subcategories: []string{
		"01_Situacije", "02_Dodatna_Dela", "03_Racuni", "04_Poravnave",
	}},
	Category{Name: "07_Gradnja", Subcategories: []string{
		"01_Gradbeni_Dnevnik", "02_Zapisniki", "03_Foto_Porocila", "04_Kontrole", "05_Meritve",
	}},
	Category{Name: "08_Korespondenca", Subcategories: []string{
		"01_Dopisi", "02_Odgovori", "03_Zahtevki", "04_Reklamacije",
	}},
	Category{Name: "09_Prevzem_garancije", Subcategories: []string{
		"01_PID_Izvedeno", "02_Tehnicni_Prevzem", "03_Uporabno_Dovoljenje",
		"04_Garancije", "05_Vzdrz_Navodila",
	}},
	Category{Name: "10_Interno", Subcategories: []string{
		"01_Interni_Zapiski", "02_Kolektor",
	}},
)
