// Package did decodes did:sol identity accounts.
//
// Reference: https://github.com/identity-com/sol-did
package did

import (
	"bytes"
	"context"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/borsh"
	"github.com/code-payments/code-solana-sdk/pkg/solana/rpc"
)

// ProgramKey is the address of the did:sol program.
var ProgramKey = solana.MustPublicKeyFromBase58("didso1Dpqpm4CsiCjzP766BGY89CAdD6ZBL68cRhFPc")

const (
	accountSeed = "did-account"
	methodName  = "did:sol:"
)

// accountDiscriminator is the first 8 bytes of sha256("account:DidAccount").
var accountDiscriminator = []byte{0x4d, 0x58, 0xef, 0x8d, 0xfb, 0x1d, 0xed, 0xf3}

var (
	ErrInvalidIdentifier    = errors.New("invalid did:sol identifier")
	ErrInvalidDiscriminator = errors.New("not a did account")
	ErrAccountNotFound      = errors.New("did account not found")
)

type VerificationMethodType uint8

const (
	VerificationMethodTypeEd25519VerificationKey2018 VerificationMethodType = iota
	VerificationMethodTypeEcdsaSecp256k1RecoveryMethod2020
	VerificationMethodTypeEcdsaSecp256k1VerificationKey2019
)

type VerificationMethodFlags uint16

const (
	FlagKeyAgreement VerificationMethodFlags = 1 << iota
	FlagAuthentication
	FlagAssertion
	FlagCapabilityInvocation
	FlagCapabilityDelegation
	FlagDidDocHidden
	FlagOwnershipProof
	FlagProtected
)

func (f VerificationMethodFlags) Has(flag VerificationMethodFlags) bool {
	return f&flag == flag
}

type VerificationMethod struct {
	Fragment   string
	Flags      VerificationMethodFlags
	MethodType VerificationMethodType
	KeyData    []byte
}

// KeyDataBase58 returns the base58 text form of the key data. For an
// Ed25519 method this is the address of the key.
func (m VerificationMethod) KeyDataBase58() string {
	return base58.Encode(m.KeyData)
}

type Service struct {
	Fragment        string
	ServiceType     string
	ServiceEndpoint string
}

// DidData is the account that stores the DID document of a subject.
type DidData struct {
	Version                   uint8
	Bump                      uint8
	Nonce                     uint64
	InitialVerificationMethod VerificationMethod
	VerificationMethods       []VerificationMethod
	Services                  []Service
	NativeControllers         []solana.PublicKey
	OtherControllers          []string
}

// Schema is the Borsh layout of DidData.
var Schema = borsh.Schema{
	"VerificationMethod": {
		{Name: "fragment", Type: borsh.String},
		{Name: "flags", Type: borsh.U16},
		{Name: "methodType", Type: borsh.U8},
		{Name: "keyData", Type: borsh.Bytes},
	},
	"Service": {
		{Name: "fragment", Type: borsh.String},
		{Name: "serviceType", Type: borsh.String},
		{Name: "serviceEndpoint", Type: borsh.String},
	},
	"DidData": {
		{Name: "discriminator", Type: borsh.FixedBytes(len(accountDiscriminator))},
		{Name: "version", Type: borsh.U8},
		{Name: "bump", Type: borsh.U8},
		{Name: "nonce", Type: borsh.U64},
		{Name: "initialVerificationMethod", Type: borsh.Struct("VerificationMethod")},
		{Name: "verificationMethods", Type: borsh.Vec(borsh.Struct("VerificationMethod"))},
		{Name: "services", Type: borsh.Vec(borsh.Struct("Service"))},
		{Name: "nativeControllers", Type: borsh.Vec(borsh.PublicKey)},
		{Name: "otherControllers", Type: borsh.Vec(borsh.String)},
	},
}

// ParseIdentifier returns the subject of a did:sol identifier, of the form
// did:sol:[cluster:]<base58 subject>. A bare base58 subject is also accepted.
func ParseIdentifier(id string) (subject solana.PublicKey, cluster string, err error) {
	rest := id
	if strings.HasPrefix(id, methodName) {
		rest = strings.TrimPrefix(id, methodName)
	}

	parts := strings.Split(rest, ":")
	switch len(parts) {
	case 1:
	case 2:
		cluster = parts[0]
		if cluster == "" {
			return subject, "", errors.Wrap(ErrInvalidIdentifier, id)
		}
	default:
		return subject, "", errors.Wrap(ErrInvalidIdentifier, id)
	}

	subject, err = solana.PublicKeyFromBase58(parts[len(parts)-1])
	if err != nil {
		return subject, "", errors.Wrapf(ErrInvalidIdentifier, "%s: %v", id, err)
	}

	return subject, cluster, nil
}

// DeriveAccountAddress returns the address of the DID account of subject.
func DeriveAccountAddress(subject solana.PublicKey) (solana.PublicKey, error) {
	return solana.FindProgramAddress(ProgramKey, []byte(accountSeed), subject[:])
}

func (d *DidData) Unmarshal(b []byte) error {
	o, err := borsh.Deserialize(Schema, "DidData", b)
	if err != nil {
		return err
	}

	v := o.View()
	discriminator := v.Bytes("discriminator")
	d.Version = v.Uint8("version")
	d.Bump = v.Uint8("bump")
	d.Nonce = v.Uint64("nonce")
	initial := v.Object("initialVerificationMethod")
	methods := v.Slice("verificationMethods")
	services := v.Slice("services")
	nativeControllers := v.Slice("nativeControllers")
	otherControllers := v.Slice("otherControllers")
	if err := v.Err(); err != nil {
		return err
	}

	if !bytes.Equal(discriminator, accountDiscriminator) {
		return ErrInvalidDiscriminator
	}

	if d.InitialVerificationMethod, err = verificationMethodFromObject(initial); err != nil {
		return err
	}

	d.VerificationMethods = make([]VerificationMethod, len(methods))
	for i, item := range methods {
		if d.VerificationMethods[i], err = verificationMethodFromObject(item.(*borsh.Object)); err != nil {
			return errors.Wrapf(err, "verificationMethods[%d]", i)
		}
	}

	d.Services = make([]Service, len(services))
	for i, item := range services {
		v := item.(*borsh.Object).View()
		d.Services[i] = Service{
			Fragment:        v.String("fragment"),
			ServiceType:     v.String("serviceType"),
			ServiceEndpoint: v.String("serviceEndpoint"),
		}
		if err := v.Err(); err != nil {
			return errors.Wrapf(err, "services[%d]", i)
		}
	}

	d.NativeControllers = make([]solana.PublicKey, len(nativeControllers))
	for i, item := range nativeControllers {
		d.NativeControllers[i] = item.(solana.PublicKey)
	}

	d.OtherControllers = make([]string, len(otherControllers))
	for i, item := range otherControllers {
		d.OtherControllers[i] = item.(string)
	}

	return nil
}

func verificationMethodFromObject(o *borsh.Object) (VerificationMethod, error) {
	v := o.View()
	m := VerificationMethod{
		Fragment:   v.String("fragment"),
		Flags:      VerificationMethodFlags(v.Uint16("flags")),
		MethodType: VerificationMethodType(v.Uint8("methodType")),
		KeyData:    v.Bytes("keyData"),
	}
	return m, v.Err()
}

func (d *DidData) Marshal() ([]byte, error) {
	methods := make([]interface{}, len(d.VerificationMethods))
	for i, m := range d.VerificationMethods {
		methods[i] = verificationMethodToObject(m)
	}

	services := make([]interface{}, len(d.Services))
	for i, s := range d.Services {
		services[i] = borsh.NewObject("Service").
			Set("fragment", s.Fragment).
			Set("serviceType", s.ServiceType).
			Set("serviceEndpoint", s.ServiceEndpoint)
	}

	nativeControllers := make([]interface{}, len(d.NativeControllers))
	for i, c := range d.NativeControllers {
		nativeControllers[i] = c
	}

	otherControllers := make([]interface{}, len(d.OtherControllers))
	for i, c := range d.OtherControllers {
		otherControllers[i] = c
	}

	return borsh.Serialize(Schema, borsh.NewObject("DidData").
		Set("discriminator", accountDiscriminator).
		Set("version", d.Version).
		Set("bump", d.Bump).
		Set("nonce", d.Nonce).
		Set("initialVerificationMethod", verificationMethodToObject(d.InitialVerificationMethod)).
		Set("verificationMethods", methods).
		Set("services", services).
		Set("nativeControllers", nativeControllers).
		Set("otherControllers", otherControllers))
}

func verificationMethodToObject(m VerificationMethod) *borsh.Object {
	keyData := m.KeyData
	if keyData == nil {
		keyData = []byte{}
	}

	return borsh.NewObject("VerificationMethod").
		Set("fragment", m.Fragment).
		Set("flags", uint16(m.Flags)).
		Set("methodType", uint8(m.MethodType)).
		Set("keyData", keyData)
}

// AccountInfoGetter is the subset of rpc.Client used to load DID accounts.
type AccountInfoGetter interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.AccountInfo, error)
}

// GetDidData loads the DID account of subject.
func GetDidData(ctx context.Context, sc AccountInfoGetter, subject solana.PublicKey) (*DidData, error) {
	address, err := DeriveAccountAddress(subject)
	if err != nil {
		return nil, err
	}

	info, err := sc.GetAccountInfo(ctx, address)
	if errors.Is(err, rpc.ErrNoAccount) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if info.Owner != ProgramKey {
		return nil, ErrInvalidDiscriminator
	}

	var d DidData
	if err := d.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	return &d, nil
}
