package breeds

import "strings"

var (
	fallbackDogs = []string{
		"Labrador Retriever", "German Shepherd", "Golden Retriever", "Bulldog", "Poodle",
		"Beagle", "Rottweiler", "Yorkshire Terrier", "Boxer", "Dachshund",
		"Siberian Husky", "Chihuahua", "Shih Tzu", "Doberman Pinscher", "Border Collie",
		"Australian Shepherd", "Pug", "Great Dane", "Cocker Spaniel", "Maltese",
	}
	fallbackCats = []string{
		"Persian", "Siamese", "Maine Coon", "Ragdoll", "Bengal",
		"Sphynx", "British Shorthair", "Scottish Fold", "Abyssinian", "American Shorthair",
		"Russian Blue", "Norwegian Forest", "Savannah", "Bombay", "Birman",
		"Oriental", "Manx", "Chartreux", "Turkish Angora", "Himalayan",
	}
)

// Fallback es la lista local usada cuando el proveedor no responde.
func Fallback(species string) []Breed {
	names := fallbackDogs
	if species == SpeciesCat {
		names = fallbackCats
	}
	out := make([]Breed, 0, len(names))
	for _, n := range names {
		out = append(out, Breed{ID: Slug(n), Name: n})
	}
	return out
}

// Slug arma un id a partir del nombre: minúsculas y espacios como "_".
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
