package imaging

// Service adapts the package functions to the media pipeline's enhancer
// contract.
type Service struct{}

// NewService creates an enhancement service.
func NewService() Service { return Service{} }

// Enhance equalizes the image and writes the enhanced copy.
func (Service) Enhance(path string) (string, error) { return Enhance(path) }

// ColorTags derives warm/cool/neutral tags from channel balance.
func (Service) ColorTags(path string) ([]string, error) { return ColorTags(path) }
